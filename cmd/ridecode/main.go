// Command ridecode decodes Remote-ID data given as hex: a single 25 byte
// message, a vendor element payload, or a whole radiotap frame.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/gopacket"

	"github.com/lcalzada-xor/ridmap/internal/adapters/publish"
	"github.com/lcalzada-xor/ridmap/internal/adapters/sniffer/parser"
	"github.com/lcalzada-xor/ridmap/internal/remoteid"
)

func main() {
	pack := flag.String("pack", "", "Hex of one message pack (header byte included)")
	vendor := flag.String("vendor", "", "Hex of a vendor element payload after the OUI type")
	frame := flag.String("frame", "", "Hex of a radiotap frame")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	var err error
	switch {
	case *pack != "":
		err = decodePack(os.Stdout, *pack)
	case *vendor != "":
		err = decodeVendor(os.Stdout, *vendor)
	case *frame != "":
		err = decodeFrame(os.Stdout, *frame)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ridecode: %v\n", err)
		os.Exit(1)
	}
}

func parseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", ":", "", "\n", "").Replace(s)
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	return hex.DecodeString(s)
}

func decodePack(w io.Writer, s string) error {
	data, err := parseHex(s)
	if err != nil {
		return err
	}
	msg, err := remoteid.Decode(data)
	if err != nil {
		return err
	}
	publish.NewPrinter(w).PrintMessage(msg)
	return nil
}

func decodeVendor(w io.Writer, s string) error {
	data, err := parseHex(s)
	if err != nil {
		return err
	}
	vp, err := remoteid.SplitPacks(data)
	if err != nil {
		return err
	}
	publish.NewPrinter(w).PrintPayload(vp)
	return nil
}

func decodeFrame(w io.Writer, s string) error {
	data, err := parseHex(s)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	h := parser.NewFrameHandler(nil, logger)

	rec, err := h.HandleFrame(context.Background(), data, gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(data),
		Length:        len(data),
	})
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("frame carries no Remote-ID data")
	}
	publish.NewPrinter(w).PrintRecord(*rec)
	return nil
}
