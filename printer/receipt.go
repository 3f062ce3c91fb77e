package printer

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"kiosk-service/models"

	"github.com/shopspring/decimal"
)

const shopName = "PIZZA AU FEU DE BOIS"

// Receipt is the printable view of an order.
type Receipt struct {
	OrderNumber string
	CreatedAt   time.Time
	DeviceID    string
	Lines       []ReceiptLine
	Total       decimal.Decimal
}

// ReceiptLine is one itemized row.
type ReceiptLine struct {
	Quantity int
	Name     string
	Subtotal decimal.Decimal
}

// NewReceipt builds a receipt for order printed at deviceID.
func NewReceipt(order models.OrderResponse, deviceID string) Receipt {
	r := Receipt{
		OrderNumber: order.OrderNumber,
		CreatedAt:   order.CreatedAt,
		DeviceID:    deviceID,
		Total:       order.TotalAmount,
	}
	for _, it := range order.Items {
		name := "Article"
		if it.Name != nil && *it.Name != "" {
			name = *it.Name
		}
		r.Lines = append(r.Lines, ReceiptLine{Quantity: it.Quantity, Name: name, Subtotal: it.Subtotal})
	}
	return r
}

type align int

const (
	alignLeft align = iota
	alignCenter
)

// row is a laid-out line with its print attributes.
type row struct {
	text   string
	align  align
	bold   bool
	double bool
}

type document struct {
	rows []row
	cut  bool
}

func (d *document) add(text string, a align, bold, double bool) {
	d.rows = append(d.rows, row{text: text, align: a, bold: bold, double: double})
}

func (d *document) blank() { d.add("", alignLeft, false, false) }

func receiptDocument(r Receipt, width int, loc *time.Location) document {
	var d document
	rule := strings.Repeat("=", width)
	created := r.CreatedAt.In(loc)

	d.add(shopName, alignCenter, true, false)
	d.blank()
	d.add("N° "+r.OrderNumber, alignCenter, true, true)
	d.blank()
	d.add("Date: "+created.Format("02/01/2006"), alignLeft, false, false)
	d.add("Heure: "+created.Format("15:04:05"), alignLeft, false, false)
	d.add("Caisse: "+r.DeviceID, alignLeft, false, false)
	d.add(rule, alignLeft, false, false)
	d.blank()
	d.add("ARTICLES", alignLeft, true, false)
	d.add(rule, alignLeft, false, false)
	for _, l := range r.Lines {
		d.add(itemRow(l, width), alignLeft, false, false)
	}
	d.add(rule, alignLeft, false, false)
	d.blank()
	d.add(columns("TOTAL", money(r.Total), width), alignLeft, true, false)
	d.blank()
	d.add(rule, alignLeft, false, false)
	d.add("Merci de votre visite!", alignCenter, false, false)
	d.add("A bientot!", alignCenter, false, false)
	d.blank()
	d.cut = true
	return d
}

func testDocument(deviceID string, at time.Time, loc *time.Location) document {
	var d document
	d.add("TEST D'IMPRESSION", alignCenter, true, false)
	d.blank()
	d.add("Device: "+deviceID, alignCenter, false, false)
	d.add("Date: "+at.In(loc).Format("02/01/2006 15:04:05"), alignCenter, false, false)
	d.blank()
	d.add("Imprimante fonctionne correctement!", alignCenter, false, false)
	d.blank()
	d.cut = true
	return d
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2) + "€"
}

func itemRow(l ReceiptLine, width int) string {
	qty := fmt.Sprintf("%dx ", l.Quantity)
	amount := money(l.Subtotal)
	room := width - utf8.RuneCountInString(qty) - utf8.RuneCountInString(amount) - 1
	return qty + columns(truncate(l.Name, room), amount, width-utf8.RuneCountInString(qty))
}

// columns left-aligns left and right-aligns right within width.
func columns(left, right string, width int) string {
	gap := width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func center(s string, width int) string {
	pad := (width - utf8.RuneCountInString(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

// Text renders the document as plain text, one row per line.
func (d document) Text(width int) string {
	var b strings.Builder
	for _, r := range d.rows {
		if r.align == alignCenter {
			b.WriteString(center(r.text, width))
		} else {
			b.WriteString(r.text)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderText lays the receipt out as plain text.
func RenderText(r Receipt, width int, loc *time.Location) string {
	return receiptDocument(r, width, loc).Text(width)
}

// ESC/POS command bytes.
var (
	escInit        = []byte{0x1b, 0x40}
	escCodePage858 = []byte{0x1b, 0x74, 19}
	escAlignLeft   = []byte{0x1b, 0x61, 0}
	escAlignCenter = []byte{0x1b, 0x61, 1}
	escBoldOn      = []byte{0x1b, 0x45, 1}
	escBoldOff     = []byte{0x1b, 0x45, 0}
	gsSizeDouble   = []byte{0x1d, 0x21, 0x11}
	gsSizeNormal   = []byte{0x1d, 0x21, 0x00}
	gsCut          = []byte{0x1d, 0x56, 0x41, 0x03}
)

// pc858 maps the non-ASCII runes receipts use onto code page 858.
var pc858 = map[rune]byte{
	'€': 0xd5, '°': 0xf8, 'é': 0x82, 'è': 0x8a, 'ê': 0x88, 'à': 0x85, 'â': 0x83,
	'ç': 0x87, 'ô': 0x93, 'û': 0x96, 'ù': 0x97, 'î': 0x8c, 'ï': 0x8b, 'É': 0x90,
}

func encodePC858(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r < 0x80:
			out = append(out, byte(r))
		default:
			if b, ok := pc858[r]; ok {
				out = append(out, b)
			} else {
				out = append(out, '?')
			}
		}
	}
	return out
}

// ESCPOS encodes the document for an Epson-compatible thermal printer.
func (d document) ESCPOS() []byte {
	var b bytes.Buffer
	b.Write(escInit)
	b.Write(escCodePage858)
	for _, r := range d.rows {
		if r.align == alignCenter {
			b.Write(escAlignCenter)
		} else {
			b.Write(escAlignLeft)
		}
		if r.bold {
			b.Write(escBoldOn)
		}
		if r.double {
			b.Write(gsSizeDouble)
		}
		b.Write(encodePC858(r.text))
		b.WriteByte('\n')
		if r.double {
			b.Write(gsSizeNormal)
		}
		if r.bold {
			b.Write(escBoldOff)
		}
	}
	if d.cut {
		b.Write(gsCut)
	}
	return b.Bytes()
}
