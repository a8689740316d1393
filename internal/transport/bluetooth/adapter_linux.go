package bluetooth

import (
	"fmt"

	"github.com/s68k/firmware/hid"
	tgbt "tinygo.org/x/bluetooth"
)

var (
	uuidHIDService      = tgbt.New16BitUUID(0x1812)
	uuidHIDInformation  = tgbt.New16BitUUID(0x2A4A)
	uuidReportMap       = tgbt.New16BitUUID(0x2A4B)
	uuidHIDControlPoint = tgbt.New16BitUUID(0x2A4C)
	uuidReport          = tgbt.New16BitUUID(0x2A4D)
	uuidProtocolMode    = tgbt.New16BitUUID(0x2A4E)
	uuidBootKeyboardIn  = tgbt.New16BitUUID(0x2A22)
	uuidBatteryService  = tgbt.New16BitUUID(0x180F)
	uuidBatteryLevel    = tgbt.New16BitUUID(0x2A19)
	hidInformationValue = []byte{0x11, 0x01, 0x00, 0x02} // bcdHID 1.11, country 0, normally connectable
	protocolModeReport  = []byte{0x01}
	fullBatteryLevel    = []byte{100}
	emptyKeyboardReport = make([]byte, hid.ReportSize)
)

// Adapter is a Radio backed by the host's BlueZ adapter.
type Adapter struct {
	adapter *tgbt.Adapter
	adv     *tgbt.Advertisement
	report  tgbt.Characteristic
	boot    tgbt.Characteristic
	address string
}

// OpenAdapter enables the default adapter, registers the HID and battery
// services and prepares an advertisement under name.
func OpenAdapter(name string) (*Adapter, error) {
	a := &Adapter{adapter: tgbt.DefaultAdapter}
	if err := a.adapter.Enable(); err != nil {
		return nil, fmt.Errorf("bluetooth: enable adapter: %w", err)
	}
	if mac, err := a.adapter.Address(); err == nil {
		a.address = mac.String()
	}

	err := a.adapter.AddService(&tgbt.Service{
		UUID: uuidHIDService,
		Characteristics: []tgbt.CharacteristicConfig{
			{UUID: uuidHIDInformation, Value: hidInformationValue, Flags: tgbt.CharacteristicReadPermission},
			{UUID: uuidReportMap, Value: hid.ReportDescriptor, Flags: tgbt.CharacteristicReadPermission},
			{UUID: uuidHIDControlPoint, Flags: tgbt.CharacteristicWriteWithoutResponsePermission},
			{UUID: uuidProtocolMode, Value: protocolModeReport,
				Flags: tgbt.CharacteristicReadPermission | tgbt.CharacteristicWriteWithoutResponsePermission},
			{Handle: &a.report, UUID: uuidReport, Value: emptyKeyboardReport,
				Flags: tgbt.CharacteristicReadPermission | tgbt.CharacteristicNotifyPermission},
			{Handle: &a.boot, UUID: uuidBootKeyboardIn, Value: emptyKeyboardReport,
				Flags: tgbt.CharacteristicReadPermission | tgbt.CharacteristicNotifyPermission},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("bluetooth: add hid service: %w", err)
	}
	err = a.adapter.AddService(&tgbt.Service{
		UUID: uuidBatteryService,
		Characteristics: []tgbt.CharacteristicConfig{
			{UUID: uuidBatteryLevel, Value: fullBatteryLevel,
				Flags: tgbt.CharacteristicReadPermission | tgbt.CharacteristicNotifyPermission},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("bluetooth: add battery service: %w", err)
	}

	a.adv = a.adapter.DefaultAdvertisement()
	err = a.adv.Configure(tgbt.AdvertisementOptions{
		LocalName:    name,
		ServiceUUIDs: []tgbt.UUID{uuidHIDService},
	})
	if err != nil {
		return nil, fmt.Errorf("bluetooth: configure advertisement: %w", err)
	}
	return a, nil
}

// Address returns the adapter's MAC address, or "" if BlueZ did not report one.
func (a *Adapter) Address() string { return a.address }

func (a *Adapter) StartAdvertising() error { return a.adv.Start() }

func (a *Adapter) StopAdvertising() error { return a.adv.Stop() }

func (a *Adapter) SendReport(report []byte) error {
	if _, err := a.report.Write(report); err != nil {
		return err
	}
	_, err := a.boot.Write(report)
	return err
}
