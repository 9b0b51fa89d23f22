package handlers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

// qrCache renders the join QR code once; the link never changes while
// the process runs.
type qrCache struct {
	once sync.Once
	png  []byte
	err  error
}

// JoinLink returns the deep link that opens the bot with /join
func JoinLink(botUsername string) string {
	return "https://t.me/" + strings.TrimPrefix(botUsername, "@") + "?start=join"
}

// JoinQR serves a PNG QR code of the bot's join link for the game table
func (h *Handler) JoinQR(w http.ResponseWriter, r *http.Request) {
	if h.botUsername == "" {
		http.Error(w, "Bot username not configured", http.StatusNotFound)
		return
	}

	h.qr.once.Do(func() {
		h.qr.png, h.qr.err = generateQRCode(JoinLink(h.botUsername))
	})
	if h.qr.err != nil {
		log.Printf("http: join qr: %v", h.qr.err)
		http.Error(w, "Failed to render QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(h.qr.png)
}

// generateQRCode renders url as a PNG QR code
func generateQRCode(url string) ([]byte, error) {
	qrc, err := qrcode.NewWith(url,
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium),
		qrcode.WithEncodingMode(qrcode.EncModeByte),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	// The standard writer only writes to a named file
	tmp, err := os.CreateTemp("", "mafiabot-qr-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpFile := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpFile)

	w, err := standard.New(tmpFile,
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(8),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create writer: %w", err)
	}

	if err := qrc.Save(w); err != nil {
		return nil, fmt.Errorf("failed to save QR code: %w", err)
	}

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read QR code file: %w", err)
	}
	return data, nil
}
