package stdx

// Must0 panics when err is not nil. It is meant for initialization paths
// where an error indicates a programming mistake rather than a runtime
// condition.
func Must0(err error) {
	if err != nil {
		panic(err)
	}
}

// Must1 returns v when err is nil and panics otherwise. It collapses the
// common construct-or-die pattern:
//
//	def := stdx.Must1(skill.New(searchWeb))
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Must2 returns both values when err is nil and panics otherwise.
func Must2[T any, V any](t T, v V, err error) (T, V) {
	if err != nil {
		panic(err)
	}
	return t, v
}
