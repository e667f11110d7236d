package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// qrPayload is the text scanned from a report QR code:
//
//	TOKENCRC1;<file>;<SHA-256>;<PASS|FAIL>;<mismatches>/<checks>;<type4 mode>
//
// Field separators in the file name are replaced so the payload stays
// splittable on ';'.
func qrPayload(rep Report) (string, error) {
	sum := strings.ToUpper(strings.TrimSpace(rep.Sha256))
	if len(sum) != 64 || strings.Trim(sum, "0123456789ABCDEF") != "" {
		return "", fmt.Errorf("report sha256 %q is not a hex digest", rep.Sha256)
	}
	if rep.Error != "" {
		return "", errors.New("report has no checksum results")
	}
	file := strings.ReplaceAll(filepath.Base(rep.File), ";", "_")
	return fmt.Sprintf("TOKENCRC1;%s;%s;%s;%d/%d;%s",
		file, sum, passLabel(rep.Pass), rep.Mismatches(), len(rep.Checks), emptyFallback(rep.Type4Mode, "-")), nil
}

// ReportQR renders the report's QR payload as a PNG of size pixels.
func ReportQR(rep Report, size int) ([]byte, error) {
	payload, err := qrPayload(rep)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 128
	}
	return qrcode.Encode(payload, qrcode.Medium, size)
}
