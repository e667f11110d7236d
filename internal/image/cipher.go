package image

// Cipher is the encryption layer wrapped around a token image. Checksums are
// validated on the decrypted record and regenerated before encryption.
type Cipher interface {
	Decrypt(record []byte) error
	Encrypt(record []byte) error
}

// Plain is the Cipher for images that are stored already decrypted.
type Plain struct{}

func (Plain) Decrypt([]byte) error { return nil }
func (Plain) Encrypt([]byte) error { return nil }

func orPlain(c Cipher) Cipher {
	if c == nil {
		return Plain{}
	}
	return c
}
