package world

import (
	"time"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/vec"
)

// Interval - таймер фиксированного периода, управляемый внешними часами.
// Первый вызов Due срабатывает сразу.
type Interval struct {
	period  time.Duration
	next    time.Time
	started bool
}

// NewInterval создаёт таймер с периодом period
func NewInterval(period time.Duration) *Interval {
	return &Interval{period: period}
}

// Due сообщает, пора ли выполнить задачу, и переводит таймер на следующий период
func (i *Interval) Due(now time.Time) bool {
	if !i.started {
		i.started = true
		i.next = now.Add(i.period)
		return true
	}
	if now.Before(i.next) {
		return false
	}
	i.next = i.next.Add(i.period)
	if !i.next.After(now) {
		i.next = now.Add(i.period)
	}
	return true
}

// ViewDistance включает экземпляры в радиусе от наблюдателя и выключает остальные
type ViewDistance struct {
	instances *InstanceRegistry
	observer  Observer
	radius    float64
	interval  *Interval
	stopped   bool
	log       *logging.Logger
}

// NewViewDistance создаёт планировщик дальности прорисовки
func NewViewDistance(instances *InstanceRegistry, observer Observer, radius float64, period time.Duration, log *logging.Logger) *ViewDistance {
	return &ViewDistance{
		instances: instances,
		observer:  observer,
		radius:    radius,
		interval:  NewInterval(period),
		log:       log,
	}
}

// Stopped сообщает, остановлен ли планировщик
func (v *ViewDistance) Stopped() bool {
	return v.stopped || v.observer == nil
}

// Update выполняет проход, если подошёл интервал. Возвращает true, если проход был.
func (v *ViewDistance) Update(now time.Time) bool {
	if v.Stopped() || !v.interval.Due(now) {
		return false
	}
	v.Apply()
	return true
}

// Apply переключает активность экземпляров по квадрату расстояния до наблюдателя
func (v *ViewDistance) Apply() (activated, deactivated int) {
	if v.observer == nil {
		return 0, 0
	}
	pos, ok := v.observer.Position()
	if !ok {
		v.stopped = true
		v.log.Warn("Наблюдатель недоступен, дальность прорисовки остановлена")
		return 0, 0
	}

	r2 := v.radius * v.radius
	v.instances.Each(func(p vec.Vec3, inst Instance) {
		h := inst.Handle
		if h == nil || !h.Valid() {
			return
		}
		want := p.ToFloat().DistanceSq(pos) <= r2
		if h.Active() == want {
			return
		}
		h.SetActive(want)
		if want {
			activated++
		} else {
			deactivated++
		}
	})
	return activated, deactivated
}
