package ws

import "github.com/tomikazi/play9/wsutil"

func safeSend(ch chan []byte, data []byte) {
	wsutil.SafeSend(ch, data)
}
