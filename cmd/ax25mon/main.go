/* Print frames from a KISS TNC or a capture, and send what is typed in. */
package main

import (
	ax25 "github.com/doismellburning/ax25codec/src"
)

func main() {
	ax25.MonitorMain()
}
