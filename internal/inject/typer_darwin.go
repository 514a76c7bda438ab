//go:build darwin

package inject

/*
#cgo LDFLAGS: -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>

static void postUnicode(const UniChar* chars, int length) {
	CGEventRef down = CGEventCreateKeyboardEvent(NULL, 0, true);
	CGEventRef up = CGEventCreateKeyboardEvent(NULL, 0, false);

	CGEventKeyboardSetUnicodeString(down, length, chars);
	CGEventKeyboardSetUnicodeString(up, length, chars);

	CGEventPost(kCGHIDEventTap, down);
	CGEventPost(kCGHIDEventTap, up);

	CFRelease(down);
	CFRelease(up);
}
*/
import "C"

import (
	"time"
	"unicode/utf16"
	"unsafe"
)

// CGEventKeyboardSetUnicodeString принимает не больше 20 UTF-16 единиц.
const maxEventChars = 20

type darwinTyper struct{}

func newTyper() (Typer, error) {
	return darwinTyper{}, nil
}

// Type отправляет текст пачками UTF-16 единиц, не разрывая суррогатные пары.
func (darwinTyper) Type(text string) error {
	units := utf16.Encode([]rune(text))
	for len(units) > 0 {
		n := min(len(units), maxEventChars)
		if n < len(units) && utf16.IsSurrogate(rune(units[n-1])) && units[n-1] < 0xDC00 {
			n--
		}
		C.postUnicode((*C.UniChar)(unsafe.Pointer(&units[0])), C.int(n))
		units = units[n:]
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}
