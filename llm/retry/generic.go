package retry

import "context"

// DoTyped runs fn under r and returns its value.
//
//	db, err := retry.DoTyped(ctx, r, func() (*gorm.DB, error) {
//	    return gorm.Open(dialector, cfg)
//	})
func DoTyped[T any](ctx context.Context, r Retryer, fn func() (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
