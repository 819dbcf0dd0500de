package hooks

// Each calls every fn in order and stops at the first error.
func Each[F any](fns []F, call func(F) error) error {
	for _, fn := range fns {
		if err := call(fn); err != nil {
			return err
		}
	}
	return nil
}

// Last calls every fn in order and keeps the last result for which present
// reports true. found is false when no callback produced one.
func Last[F, R any](fns []F, call func(F) (R, error), present func(R) bool) (result R, found bool, err error) {
	for _, fn := range fns {
		r, err := call(fn)
		if err != nil {
			var zero R
			return zero, false, err
		}
		if present(r) {
			result, found = r, true
		}
	}
	return result, found, nil
}

// First calls fns in order until one returns a present result.
// Errors are passed to onErr (if set) and evaluation continues.
func First[F, R any](fns []F, call func(F) (R, error), present func(R) bool, onErr func(error)) (R, bool) {
	for _, fn := range fns {
		r, err := call(fn)
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			continue
		}
		if present(r) {
			return r, true
		}
	}
	var zero R
	return zero, false
}
