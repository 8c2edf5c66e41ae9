package filter

// Ring кольцевой буфер фиксированной ёмкости, при переполнении вытесняет самый старый элемент
type Ring[T any] struct {
	buf   []T
	start int
	size  int
}

// NewRing создает буфер на capacity элементов (минимум 1)
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push добавляет значение в конец
func (r *Ring[T]) Push(v T) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = v
		r.size++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// Len количество элементов
func (r *Ring[T]) Len() int { return r.size }

// Cap ёмкость
func (r *Ring[T]) Cap() int { return len(r.buf) }

// At i-й элемент от самого старого, отрицательный индекс считается с конца (-1 последний)
func (r *Ring[T]) At(i int) T {
	if i < 0 {
		i += r.size
	}
	if i < 0 || i >= r.size {
		panic("filter: ring index out of range")
	}
	return r.buf[(r.start+i)%len(r.buf)]
}

// Last копия последних n элементов в порядке поступления
func (r *Ring[T]) Last(n int) []T {
	if n > r.size {
		n = r.size
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = r.At(r.size - n + i)
	}
	return out
}

// Reset очищает буфер
func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.start, r.size = 0, 0
}
