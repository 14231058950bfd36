package i2c

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRegWrite(t *testing.T) {
	Convey("Register frames are encoded register first", t, func() {
		raw, err := RegWrite(0x06, 0x00, 0x00, 0x33, 0x01)
		So(err, ShouldBeNil)
		So(raw, ShouldResemble, []byte{0x06, 0x00, 0x00, 0x33, 0x01})

		Convey("A bare register write is a single byte", func() {
			raw, err := RegWrite(0xFE)
			So(err, ShouldBeNil)
			So(raw, ShouldResemble, []byte{0xFE})
		})
	})

	Convey("Oversized payloads are refused", t, func() {
		_, err := RegWrite(0x00, make([]byte, MaxTransfer)...)
		So(err, ShouldEqual, ERR_DATA_TOO_LONG)
	})
}
