package threadpool

type queue[T any] []T

func (q *queue[T]) Len() int { return len(*q) }

func (q *queue[T]) Pop() T {
	old := *q
	x := old[0]
	var zero T
	old[0] = zero
	*q = old[1:]
	return x
}

func (q *queue[T]) Push(t T) {
	*q = append(*q, t)
}

// stack hands back the most recently pushed element first.
type stack[T any] []T

func (s *stack[T]) Len() int { return len(*s) }

func (s *stack[T]) Pop() T {
	old := *s
	n := len(old)
	x := old[n-1]
	var zero T
	old[n-1] = zero
	*s = old[:n-1]
	return x
}

func (s *stack[T]) Push(t T) {
	*s = append(*s, t)
}
