//go:build !windows && !linux

package lockscreen

func platformInvoker() Invoker {
	return unsupported()
}
