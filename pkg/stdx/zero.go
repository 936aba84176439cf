package stdx

// Zero returns the zero value of T. It reads better than declaring a
// throwaway variable at call sites that only need a default to return.
func Zero[T any]() T {
	var zero T
	return zero
}
