package checksum

// CRC16 parameters.
const (
	// CRC16Polynomial is the CCITT polynomial x^16 + x^12 + x^5 + 1.
	CRC16Polynomial = 0x1021

	// CRC16InitialValue seeds every checksum. No final XOR is applied.
	CRC16InitialValue = 0xFFFF

	// CRC16HighBitMask selects the bit tested on each shift.
	CRC16HighBitMask = 0x8000

	// BitsPerByte is the number of bits per byte
	BitsPerByte = 8
)

// UpdateCRC16 folds one byte into crc, most significant bit first.
//
// The loop shifts the data byte alongside the CRC instead of XORing it in up
// front; the result matches CRC-16/CCITT-FALSE bit for bit.
func UpdateCRC16(crc uint16, b byte) uint16 {
	data := uint16(b) << BitsPerByte
	for i := 0; i < BitsPerByte; i++ {
		var poly uint16
		if (crc^data)&CRC16HighBitMask != 0 {
			poly = CRC16Polynomial
		}
		crc = (crc << 1) ^ poly
		data <<= 1
	}
	return crc
}

// CRC16 computes the checksum of data starting from CRC16InitialValue.
func CRC16(data []byte) uint16 {
	crc := uint16(CRC16InitialValue)
	for _, b := range data {
		crc = UpdateCRC16(crc, b)
	}
	return crc
}

func updateCRC16(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc = UpdateCRC16(crc, b)
	}
	return crc
}
