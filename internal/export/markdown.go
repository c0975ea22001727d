// Package export renders a finished plan as shareable artifacts.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/wanderplan/trip-cli/internal/model"
	"github.com/wanderplan/trip-cli/internal/session"
)

// Markdown renders the session's itinerary as a markdown document.
func Markdown(d session.Data) (string, error) {
	if d.Itinerary == nil {
		return "", eris.New("export: no itinerary to export")
	}

	var b strings.Builder
	prefs := d.Prefs

	fmt.Fprintf(&b, "# %s, %d nights\n\n", prefs.Destination, prefs.Nights)
	if d.Itinerary.LowConfidence {
		b.WriteString("> Built from limited data; verify details before booking.\n\n")
	}

	writeOverview(&b, d)
	writeBases(&b, d)
	writeDays(&b, d)
	writeDining(&b, d)
	writeWarnings(&b, d)

	return b.String(), nil
}

func writeOverview(b *strings.Builder, d session.Data) {
	prefs := d.Prefs
	b.WriteString("## Overview\n\n")
	if prefs.StartDate != nil {
		fmt.Fprintf(b, "- Dates: %s, %d nights\n", prefs.StartDate.Format("Jan 2 2006"), prefs.Nights)
	} else {
		fmt.Fprintf(b, "- Length: %d nights\n", prefs.Nights)
	}
	fmt.Fprintf(b, "- Party: %d adults", prefs.Party.Adults)
	if prefs.Party.Children > 0 {
		fmt.Fprintf(b, ", %d children", prefs.Party.Children)
	}
	b.WriteString("\n")
	if prefs.Pace != "" {
		fmt.Fprintf(b, "- Pace: %s\n", prefs.Pace)
	}
	if prefs.Budget.MaxPerNight > 0 {
		fmt.Fprintf(b, "- Hotel budget: up to %.0f %s/night\n", prefs.Budget.MaxPerNight, prefs.Budget.Currency)
	}
	b.WriteString("\n")
}

func writeBases(b *strings.Builder, d session.Data) {
	split, ok := d.Splits[d.Prefs.SelectedSplitID]
	if !ok {
		return
	}
	b.WriteString("## Bases\n\n")
	for _, stop := range split.Stops {
		fmt.Fprintf(b, "- **%s**, %d nights", areaName(d, stop.AreaID), stop.Nights)
		if hotelID := d.Prefs.SelectedHotels[stop.AreaID]; hotelID != "" {
			if h, ok := d.Hotels[hotelID]; ok {
				fmt.Fprintf(b, " at %s (%s)", h.Name, priceLine(h, d.Prefs.Budget.Currency))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeDays(b *strings.Builder, d session.Data) {
	b.WriteString("## Day by day\n\n")
	for _, day := range d.Itinerary.Days {
		fmt.Fprintf(b, "### Day %d", day.Index+1)
		if day.Date != nil {
			fmt.Fprintf(b, " (%s)", day.Date.Format("Mon Jan 2"))
		}
		fmt.Fprintf(b, " - %s\n\n", areaName(d, day.AreaID))

		if day.TransitDay {
			fmt.Fprintf(b, "Travel from %s to %s.\n\n",
				areaName(d, day.TransitFrom), areaName(d, day.TransitTo))
		}
		if day.RestDay {
			b.WriteString("Free day; no fixed plans.\n\n")
			continue
		}
		for _, block := range day.Blocks {
			fmt.Fprintf(b, "- %s: %s\n", block.Slot, block.Title)
		}
		b.WriteString("\n")
	}
}

func writeDining(b *strings.Builder, d session.Data) {
	if len(d.Itinerary.Dining.ByDay) == 0 {
		return
	}
	b.WriteString("## Reservations\n\n")

	days := make([]int, 0, len(d.Itinerary.Dining.ByDay))
	for day := range d.Itinerary.Dining.ByDay {
		days = append(days, day)
	}
	sort.Ints(days)

	for _, day := range days {
		for _, id := range d.Itinerary.Dining.ByDay[day] {
			if r, ok := d.Restaurants[id]; ok {
				fmt.Fprintf(b, "- Day %d: %s\n", day+1, r.Name)
			}
		}
	}
	b.WriteString("\n")
}

func writeWarnings(b *strings.Builder, d session.Data) {
	if d.Quality == nil || len(d.Quality.Constraints) == 0 {
		return
	}
	b.WriteString("## Heads up\n\n")
	for _, c := range d.Quality.Constraints {
		fmt.Fprintf(b, "- %s\n", c.Detail)
	}
	b.WriteString("\n")
}

func areaName(d session.Data, areaID string) string {
	if area, ok := d.Areas[areaID]; ok {
		return area.Name
	}
	return areaID
}

// priceLine renders the nightly price. A missing price reads as exactly
// that; it never shows as zero.
func priceLine(h model.HotelCandidate, currency string) string {
	if h.PricePerNight == nil {
		return "no confirmed price"
	}
	return fmt.Sprintf("%.0f %s/night, %s", *h.PricePerNight, currency, h.PriceConfidence)
}
