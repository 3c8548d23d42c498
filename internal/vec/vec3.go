package vec

// Vec3 представляет трехмерный вектор с целочисленными координатами.
// Используется как адрес блока в мире и как ключ карт.
type Vec3 struct {
	X int
	Y int
	Z int
}

// Направления шести соседей по осям
var (
	Up    = Vec3{X: 0, Y: 1, Z: 0}
	Down  = Vec3{X: 0, Y: -1, Z: 0}
	East  = Vec3{X: 1, Y: 0, Z: 0}
	West  = Vec3{X: -1, Y: 0, Z: 0}
	North = Vec3{X: 0, Y: 0, Z: 1}
	South = Vec3{X: 0, Y: 0, Z: -1}
)

// FaceDirections перечисляет шесть осевых направлений в фиксированном порядке
var FaceDirections = [6]Vec3{Up, Down, East, West, North, South}

// Column возвращает столбец (x, z), в котором находится блок
func (v Vec3) Column() Vec2 {
	return Vec2{X: v.X, Z: v.Z}
}

// Neighbors возвращает шесть соседей по осям
func (v Vec3) Neighbors() [6]Vec3 {
	var out [6]Vec3
	for i, d := range FaceDirections {
		out[i] = v.Add(d)
	}
	return out
}

// DistanceSq возвращает квадрат расстояния до другого вектора
func (v Vec3) DistanceSq(other Vec3) int {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// ToFloat возвращает центр блока в мировых координатах
func (v Vec3) ToFloat() Vec3Float {
	return Vec3Float{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}
