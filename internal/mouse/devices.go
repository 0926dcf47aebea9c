package mouse

// The configuration protocol lives on a vendor-defined usage collection,
// separate from the boot mouse interface the OS claims.
const (
	VendorUsagePage uint16 = 0xffa0
	VendorUsage     uint16 = 0x01
)

// VendorIDATK is the USB vendor id shared by ATK and VXE devices.
const VendorIDATK uint16 = 0x3554

// SupportedDevices maps vendor and product ids to model names. Wireless mice
// are reached through their receiver, which speaks the same protocol.
var SupportedDevices = map[uint16]map[uint16]string{
	VendorIDATK: {
		0xf58a: "VXE Dragonfly R1 Pro Max Receiver",
		0xf58c: "VXE Dragonfly R1 Pro Max",
		0xf50d: "ATK Blazing Sky F1 Pro Max Receiver",
		0xf50f: "ATK Blazing Sky F1 Pro Max",
	},
}

// ModelName looks up the model name for a vendor/product id pair.
func ModelName(vendorID, productID uint16) (string, bool) {
	products, ok := SupportedDevices[vendorID]
	if !ok {
		return "", false
	}
	name, ok := products[productID]
	return name, ok
}
