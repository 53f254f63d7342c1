package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zondax/hid"
	"go.uber.org/zap"

	dlerr "github.com/polagate/dotledger/pkg/errors"
)

// USB identifiers for Ledger hardware.
const (
	vendorLedger        uint16 = 0x2c97
	usagePageLedgerNano uint16 = 0xffa0
)

// supportedProductID maps the product ID high byte to the HID interface
// carrying the APDU channel, for devices that report an empty usage page.
// Based on LedgerHQ's published device table.
var supportedProductID = map[uint8]int{
	0x10: 0, // Ledger Nano S
	0x40: 0, // Ledger Nano X
	0x50: 0, // Ledger Nano S Plus
	0x60: 0, // Ledger Stax
	0x70: 0, // Ledger Flex
}

// exchangeTimeout bounds a single APDU round trip. On-device confirmation
// prompts can keep the device busy for a while.
const exchangeTimeout = 30 * time.Second

// HIDFactory opens USB HID transports to attached Ledger devices.
type HIDFactory struct {
	log *zap.SugaredLogger
}

// NewHIDFactory creates a factory for USB HID transports.
func NewHIDFactory(log *zap.SugaredLogger) *HIDFactory {
	return &HIDFactory{log: log}
}

// Open connects to the first attached Ledger device. It fails with
// ErrDeviceNotConnected when none is enumerated.
func (f *HIDFactory) Open(ctx context.Context) (Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, d := range hid.Enumerate(0, 0) {
		if d.VendorID != vendorLedger || !isLedgerInterface(d) {
			continue
		}

		f.log.Debugw("opening ledger device",
			"path", d.Path, "product", d.Product, "serial", d.Serial)

		device, err := d.Open()
		if err != nil {
			return nil, fmt.Errorf("opening HID device: %w", err)
		}

		return &hidTransport{
			device: device,
			info: DeviceInfo{
				ID:          d.Serial,
				ProductName: d.Product,
			},
			log:    f.log,
			readCo: &sync.Once{},
			readCh: make(chan []byte),
		}, nil
	}

	return nil, dlerr.ErrDeviceNotConnected
}

// isLedgerInterface reports whether the HID interface carries the APDU
// channel. Some platforms report an empty usage page, so the product ID
// table is consulted as a fallback.
func isLedgerInterface(d hid.DeviceInfo) bool {
	if d.UsagePage == usagePageLedgerNano {
		return true
	}
	productIDMM := uint8(d.ProductID >> 8)
	ifaceID, supported := supportedProductID[productIDMM]
	return supported && ifaceID == d.Interface
}

// hidTransport is the USB HID implementation of Transport.
type hidTransport struct {
	device *hid.Device
	info   DeviceInfo
	log    *zap.SugaredLogger

	readCo *sync.Once
	readCh chan []byte
}

func (t *hidTransport) Info() DeviceInfo {
	return t.info
}

func (t *hidTransport) Exchange(command []byte) ([]byte, error) {
	if len(command) < 5 {
		return nil, ErrCommandTooShort
	}

	t.log.Debugf("[HID] => %x", command)

	for _, packet := range FrameCommand(command) {
		if err := t.writeAll(packet); err != nil {
			return nil, fmt.Errorf("writing HID packet: %w", err)
		}
	}

	response, err := t.readResponse()
	if err != nil {
		return nil, err
	}

	t.log.Debugf("[HID] <= %x", response)

	if len(response) < 2 {
		return nil, dlerr.ErrResponseTooShort
	}
	return response, nil
}

func (t *hidTransport) Close() error {
	return t.device.Close()
}

// writeAll writes the full buffer, retrying on short writes.
func (t *hidTransport) writeAll(buffer []byte) error {
	written := 0
	for written < len(buffer) {
		n, err := t.device.Write(buffer[written:])
		if err != nil {
			return err
		}
		written += n
	}
	return nil
}

// read starts the background read pump once and returns its channel.
func (t *hidTransport) read() <-chan []byte {
	t.readCo.Do(func() {
		go t.readPump()
	})
	return t.readCh
}

func (t *hidTransport) readPump() {
	defer close(t.readCh)
	for {
		buffer := make([]byte, PacketSize)
		n, err := t.device.Read(buffer)
		if err != nil {
			return
		}
		select {
		case t.readCh <- buffer[:n]:
		default:
		}
	}
}

func (t *hidTransport) readResponse() ([]byte, error) {
	readCh := t.read()

	var acc ResponseAccumulator
	deadline := time.After(exchangeTimeout)
	for {
		select {
		case packet, ok := <-readCh:
			if !ok {
				return nil, fmt.Errorf("device read channel closed")
			}
			done, err := acc.Add(packet)
			if err != nil {
				return nil, err
			}
			if done {
				return acc.Response(), nil
			}
		case <-deadline:
			return nil, fmt.Errorf("timeout reading from device")
		}
	}
}
