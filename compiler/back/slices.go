package back

func filled[E any](n int, x E) []E {
	s := make([]E, n)

	for i := range s {
		s[i] = x
	}

	return s
}
