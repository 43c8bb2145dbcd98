package canio

// Blocking calls op until it returns anything other than a BufferExhausted
// error and returns that result.
//
// It spins on the calling goroutine with no backoff, no sleep and no
// timeout. The caller must own the driver behind op exclusively, and a
// caller that needs a deadline has to bound the retries around op itself.
func Blocking[T any](op func() (T, error)) (T, error) {
	for {
		v, err := op()
		if err != nil && IsExhausted(err) {
			continue
		}
		return v, err
	}
}
