package vec

import "math"

// Vec3Float представляет трехмерный вектор с плавающими координатами
// (позиции сущностей, импульсы)
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// Add складывает два вектора
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub вычитает вектор
func (v Vec3Float) Sub(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Mul умножает вектор на скаляр
func (v Vec3Float) Mul(scalar float64) Vec3Float {
	return Vec3Float{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

// Length возвращает длину вектора
func (v Vec3Float) Length() float64 {
	return math.Sqrt(v.LengthSq())
}

// LengthSq возвращает квадрат длины вектора
func (v Vec3Float) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// DistanceSq возвращает квадрат расстояния до другой точки
func (v Vec3Float) DistanceSq(other Vec3Float) float64 {
	return v.Sub(other).LengthSq()
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec3Float) DistanceTo(other Vec3Float) float64 {
	return math.Sqrt(v.DistanceSq(other))
}

// MoveTowards сдвигает точку к цели не более чем на maxDelta, не перелетая её
func (v Vec3Float) MoveTowards(target Vec3Float, maxDelta float64) Vec3Float {
	diff := target.Sub(v)
	dist := diff.Length()
	if dist <= maxDelta || dist == 0 {
		return target
	}
	return v.Add(diff.Mul(maxDelta / dist))
}

// Round возвращает ближайший целочисленный блок
func (v Vec3Float) Round() Vec3 {
	return Vec3{
		X: int(math.Round(v.X)),
		Y: int(math.Round(v.Y)),
		Z: int(math.Round(v.Z)),
	}
}
