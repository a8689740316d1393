package hid

// ReportDescriptor describes a boot-compatible keyboard: one modifier byte,
// one reserved byte, six key slots, and a five-bit LED output report.
// It is served as the HID report map by transports that need one.
var ReportDescriptor = []byte{
	0x05, 0x01, // Usage Page (Generic Desktop Ctrls)
	0x09, 0x06, // Usage (Keyboard)
	0xa1, 0x01, // Collection (Application)
	0x05, 0x07, //   Usage Page (Kbrd/Keypad)
	0x19, 0xe0, //   Usage Minimum (0xE0)
	0x29, 0xe7, //   Usage Maximum (0xE7)
	0x15, 0x00, //   Logical Minimum (0)
	0x25, 0x01, //   Logical Maximum (1)
	0x75, 0x01, //   Report Size (1)
	0x95, 0x08, //   Report Count (8)
	0x81, 0x02, //   Input (Data,Var,Abs)
	0x95, 0x01, //   Report Count (1)
	0x75, 0x08, //   Report Size (8)
	0x81, 0x01, //   Input (Const)
	0x95, 0x05, //   Report Count (5)
	0x75, 0x01, //   Report Size (1)
	0x05, 0x08, //   Usage Page (LEDs)
	0x19, 0x01, //   Usage Minimum (Num Lock)
	0x29, 0x05, //   Usage Maximum (Kana)
	0x91, 0x02, //   Output (Data,Var,Abs)
	0x95, 0x01, //   Report Count (1)
	0x75, 0x03, //   Report Size (3)
	0x91, 0x01, //   Output (Const)
	0x95, 0x06, //   Report Count (6)
	0x75, 0x08, //   Report Size (8)
	0x15, 0x00, //   Logical Minimum (0)
	0x25, 0xff, //   Logical Maximum (255)
	0x05, 0x07, //   Usage Page (Kbrd/Keypad)
	0x19, 0x00, //   Usage Minimum (0x00)
	0x29, 0xff, //   Usage Maximum (0xFF)
	0x81, 0x00, //   Input (Data,Array,Abs)
	0xc0, // End Collection
}
