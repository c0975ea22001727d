package export

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/wanderplan/trip-cli/internal/session"
)

// WriteXLSX writes the itinerary as a spreadsheet with one sheet per
// concern: overview, days, hotels, and reservations.
func WriteXLSX(d session.Data, path string) error {
	if d.Itinerary == nil {
		return eris.New("export: no itinerary to export")
	}

	f := xlsx.NewFile()
	if err := addOverviewSheet(f, d); err != nil {
		return err
	}
	if err := addDaysSheet(f, d); err != nil {
		return err
	}
	if err := addHotelsSheet(f, d); err != nil {
		return err
	}
	if err := addDiningSheet(f, d); err != nil {
		return err
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

func addOverviewSheet(f *xlsx.File, d session.Data) error {
	sheet, err := f.AddSheet("Overview")
	if err != nil {
		return eris.Wrap(err, "export: add overview sheet")
	}
	prefs := d.Prefs

	addKV(sheet, "Destination", prefs.Destination)
	addKV(sheet, "Nights", fmt.Sprintf("%d", prefs.Nights))
	if prefs.StartDate != nil {
		addKV(sheet, "Start date", prefs.StartDate.Format("2006-01-02"))
	}
	addKV(sheet, "Adults", fmt.Sprintf("%d", prefs.Party.Adults))
	if prefs.Party.Children > 0 {
		addKV(sheet, "Children", fmt.Sprintf("%d", prefs.Party.Children))
	}
	addKV(sheet, "Pace", string(prefs.Pace))
	if prefs.Budget.MaxPerNight > 0 {
		addKV(sheet, "Budget per night", fmt.Sprintf("%.0f %s", prefs.Budget.MaxPerNight, prefs.Budget.Currency))
	}
	return nil
}

func addDaysSheet(f *xlsx.File, d session.Data) error {
	sheet, err := f.AddSheet("Days")
	if err != nil {
		return eris.Wrap(err, "export: add days sheet")
	}
	addRow(sheet, "Day", "Date", "Area", "Slot", "Plan")

	for _, day := range d.Itinerary.Days {
		dayNum := fmt.Sprintf("%d", day.Index+1)
		date := ""
		if day.Date != nil {
			date = day.Date.Format("2006-01-02")
		}
		area := areaName(d, day.AreaID)

		if day.RestDay && len(day.Blocks) == 0 {
			addRow(sheet, dayNum, date, area, "", "Free day")
			continue
		}
		for _, block := range day.Blocks {
			addRow(sheet, dayNum, date, area, string(block.Slot), block.Title)
		}
	}
	return nil
}

func addHotelsSheet(f *xlsx.File, d session.Data) error {
	sheet, err := f.AddSheet("Hotels")
	if err != nil {
		return eris.Wrap(err, "export: add hotels sheet")
	}
	addRow(sheet, "Area", "Hotel", "Price per night", "Price confidence", "Rating")

	split, ok := d.Splits[d.Prefs.SelectedSplitID]
	if !ok {
		return nil
	}
	for _, stop := range split.Stops {
		hotelID := d.Prefs.SelectedHotels[stop.AreaID]
		h, ok := d.Hotels[hotelID]
		if !ok {
			continue
		}
		price := ""
		if h.PricePerNight != nil {
			price = fmt.Sprintf("%.2f", *h.PricePerNight)
		}
		rating := ""
		if h.Rating > 0 {
			rating = fmt.Sprintf("%.1f", h.Rating)
		}
		addRow(sheet, areaName(d, stop.AreaID), h.Name, price, string(h.PriceConfidence), rating)
	}
	return nil
}

func addDiningSheet(f *xlsx.File, d session.Data) error {
	if len(d.Itinerary.Dining.ByDay) == 0 {
		return nil
	}
	sheet, err := f.AddSheet("Reservations")
	if err != nil {
		return eris.Wrap(err, "export: add reservations sheet")
	}
	addRow(sheet, "Day", "Restaurant", "Cuisine")

	days := make([]int, 0, len(d.Itinerary.Dining.ByDay))
	for day := range d.Itinerary.Dining.ByDay {
		days = append(days, day)
	}
	sort.Ints(days)

	for _, day := range days {
		for _, id := range d.Itinerary.Dining.ByDay[day] {
			if r, ok := d.Restaurants[id]; ok {
				addRow(sheet, fmt.Sprintf("%d", day+1), r.Name, r.Cuisine)
			}
		}
	}
	return nil
}

func addKV(sheet *xlsx.Sheet, key, value string) {
	addRow(sheet, key, value)
}

func addRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().Value = c
	}
}
