package publish

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/lcalzada-xor/ridmap/internal/core/domain"
	"github.com/lcalzada-xor/ridmap/internal/remoteid"
)

// Printer renders decoded Remote-ID data as colored tables.
type Printer struct {
	w io.Writer
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) newTable(title string, attrs ...color.Attribute) table.Table {
	tbl := table.New(title, "VALUE").WithWriter(p.w)
	tbl.WithHeaderFormatter(color.New(attrs...).SprintfFunc())
	tbl.WithFirstColumnFormatter(color.New(color.FgYellow).SprintfFunc())
	return tbl
}

// PrintRecord prints one telemetry record.
func (p *Printer) PrintRecord(rec domain.TelemetryRecord) {
	tbl := p.newTable("REMOTE ID", color.BgHiBlue, color.FgHiWhite)
	tbl.AddRow("Received", rec.ReceivedAt.Format("2006-01-02 15:04:05.000"))
	tbl.AddRow("Source", rec.SourceMAC)
	if rec.SSID != "" {
		tbl.AddRow("SSID", rec.SSID)
	}
	tbl.AddRow("Signal", fmt.Sprintf("%d dBm", rec.Radio.Signal))
	if rec.Radio.Channel != 0 {
		tbl.AddRow("Channel", rec.Radio.Channel)
	}
	if rec.HasIdentity() {
		tbl.AddRow("UAS ID", rec.UASID)
		tbl.AddRow("ID type", rec.IDType)
		tbl.AddRow("UA type", rec.UAType)
	}
	if rec.HasPosition {
		tbl.AddRow("Position", coords(rec.Latitude, rec.Longitude))
	}
	if l := rec.Location; l != nil {
		tbl.AddRow("Status", l.Status)
		tbl.AddRow("Track", fmt.Sprintf("%d°", l.FullTrackAngle()))
		tbl.AddRow("Speed", fmt.Sprintf("%.1f kn", l.GroundSpeedKnots()))
	}
	if op := rec.Operator; op != nil {
		tbl.AddRow("Operator", coords(op.Latitude, op.Longitude))
		tbl.AddRow("Operator alt", fmt.Sprintf("%.1f m", op.AltitudeMeters))
	}
	tbl.AddRow("Messages", rec.Messages)
	tbl.Print()
}

// PrintPayload prints the vendor payload header followed by every pack it
// carries. Packs that fail to decode are reported inline.
func (p *Printer) PrintPayload(vp remoteid.VendorPayload) {
	tbl := p.newTable("VENDOR PAYLOAD", color.BgHiCyan, color.FgHiWhite)
	tbl.AddRow("Counter", vp.Counter)
	tbl.AddRow("Header", fmt.Sprintf("0x%02X (%s)", vp.Header, remoteid.HeaderType(vp.Header)))
	tbl.AddRow("Pack size", vp.PackSize)
	tbl.AddRow("Packs", vp.Count)
	tbl.Print()

	for i, pack := range vp.Packs() {
		msg, err := remoteid.Decode(pack)
		if err != nil {
			fmt.Fprintf(p.w, "pack %d: %s\n", i, color.RedString(err.Error()))
			continue
		}
		p.PrintMessage(msg)
	}
}

// PrintMessage prints a single decoded message with its derived values.
func (p *Printer) PrintMessage(msg remoteid.Message) {
	switch m := msg.(type) {
	case *remoteid.BasicID:
		tbl := p.newTable("BASIC ID", color.BgHiGreen, color.FgHiWhite)
		tbl.AddRow("ID type", m.IDType)
		tbl.AddRow("UA type", m.UAType)
		tbl.AddRow("UAS ID", m.UASID)
		tbl.Print()

	case *remoteid.LocationVector:
		tbl := p.newTable("LOCATION", color.BgHiMagenta, color.FgHiWhite)
		tbl.AddRow("Status", m.Status)
		tbl.AddRow("Height type", m.HeightType)
		tbl.AddRow("Track", fmt.Sprintf("%d°", m.FullTrackAngle()))
		tbl.AddRow("Ground speed", fmt.Sprintf("%.1f kn", m.GroundSpeedKnots()))
		tbl.AddRow("Vertical speed", m.VerticalSpeed)
		tbl.AddRow("Position", coords(m.LatitudeDegrees(), m.LongitudeDegrees()))
		tbl.AddRow("Pressure alt", m.PressureAltitude)
		tbl.AddRow("Geometric alt", m.GeometricAltitude)
		tbl.AddRow("Ground alt", m.GroundAltitude)
		tbl.AddRow("Accuracy v/h/b/s", fmt.Sprintf("%d/%d/%d/%d",
			m.VerticalAccuracy, m.HorizontalAccuracy, m.BaroAltitudeAccuracy, m.SpeedAccuracy))
		tbl.AddRow("Timestamp", fmt.Sprintf("%.1f s", float64(m.Timestamp)/10))
		tbl.AddRow("Timestamp accuracy", m.TimestampAccuracy)
		tbl.Print()

	case *remoteid.System:
		tbl := p.newTable("SYSTEM", color.BgHiYellow, color.FgBlack)
		tbl.AddRow("Region", m.ClassificationRegion)
		tbl.AddRow("Station type", m.StationType)
		tbl.AddRow("Operator", coords(m.LatitudeDegrees(), m.LongitudeDegrees()))
		tbl.AddRow("Operation count", optional(m.OperationCount))
		tbl.AddRow("Operation radius", fmt.Sprintf("%d m", m.OperationRadiusMeters()))
		tbl.AddRow("UA category", fmt.Sprintf("0x%02X", m.UACategory))
		tbl.AddRow("UA class", fmt.Sprintf("0x%02X", m.UAClass))
		tbl.AddRow("Station alt", fmt.Sprintf("%.1f m", m.StationAltitudeMeters()))
		if ts, ok := m.Time(); ok {
			tbl.AddRow("Timestamp", ts.Format("2006-01-02 15:04:05"))
		} else {
			tbl.AddRow("Timestamp", "-")
		}
		tbl.Print()
	}
}

func coords(lat, lon float64) string {
	return fmt.Sprintf("%.7f, %.7f", lat, lon)
}

func optional[T uint8 | uint16 | uint32](v *T) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*v), 10)
}
