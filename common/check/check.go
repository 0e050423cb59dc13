package check

// PanicIfErr panics on a non-nil error. Use only for conditions that are
// programming errors rather than runtime failures.
func PanicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

// PanicIfNot panics when the flag is false.
func PanicIfNot(flag bool) {
	if !flag {
		panic("requirement not met")
	}
}
