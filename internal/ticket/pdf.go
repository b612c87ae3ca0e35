// Package ticket renders the downloadable PDF e-ticket for a booking.
package ticket

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"github.com/swiftbus/bus-booking-api/internal/repository"
)

// Render produces an A4 e-ticket PDF for one booking, with the journey
// summary followed by one line per passenger.
func Render(d *repository.BookingDetail) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Bus E-Ticket", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BUS E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking Ref   : %s", d.UUID),
		fmt.Sprintf("Route         : %s -> %s", d.FromCity, d.ToCity),
		fmt.Sprintf("Departure     : %s %s", d.DepartureDate, hhmm(d.DepartureTime)),
		fmt.Sprintf("Arrival       : %s", hhmm(d.ArrivalTime)),
		fmt.Sprintf("Operator      : %s", d.OperatorName),
		fmt.Sprintf("Bus           : %s (%s)", d.BusNumber, d.BusType),
		fmt.Sprintf("Seats         : %s", strings.Join(d.Seats, ", ")),
		fmt.Sprintf("Total Paid    : Rs. %.2f (%s)", d.TotalAmount, payMethod(d.PaymentMethod)),
		fmt.Sprintf("Status        : %s", strings.ToUpper(d.Status)),
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Passengers")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	for i, p := range d.Passengers {
		pdf.Cell(0, 6, fmt.Sprintf("%d) %s  (%d, %s)  Seat %s", i+1, p.Name, p.Age, p.Gender, p.SeatLabel))
		pdf.Ln(6)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please carry a valid photo ID for every passenger and arrive at the boarding point 15 minutes before departure.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// hhmm trims seconds off a "15:04:05" time for display.
func hhmm(t string) string {
	if len(t) >= 5 {
		return t[:5]
	}
	return t
}

func payMethod(m *string) string {
	if m == nil || *m == "" {
		return "online"
	}
	return *m
}
