package utils

func Ptr[T any](v T) *T { return &v }

func PtrValue[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
