package vec

// Vec2 адресует столбец мира по горизонтальным осям (x, z)
type Vec2 struct {
	X, Z int
}

// At возвращает блок столбца на высоте y
func (v Vec2) At(y int) Vec3 {
	return Vec3{X: v.X, Y: y, Z: v.Z}
}
