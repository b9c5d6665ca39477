//go:build windows

package lockscreen

func platformInvoker() Invoker {
	return NewCommand("rundll32.exe", "user32.dll,LockWorkStation")
}
