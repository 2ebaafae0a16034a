package authpublic

// ErrorEntry is one reason an authentication attempt failed.
type ErrorEntry struct {
	MessageKey string `json:"message_key" yaml:"messageKey"`
	Message    string `json:"message" yaml:"message"`
}

// Failure is attached to the Conn when authentication does not succeed.
// Errors keep the order they were reported in.
type Failure struct {
	Provider string
	Strategy Strategy
	Errors   []ErrorEntry
}

// Keys returns the message keys in order.
func (f *Failure) Keys() []string {
	if f == nil {
		return nil
	}

	ret := make([]string, 0, len(f.Errors))
	for _, e := range f.Errors {
		ret = append(ret, e.MessageKey)
	}

	return ret
}
