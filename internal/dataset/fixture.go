package dataset

import (
	"github.com/propgrid/propgrid/internal/view"
	"github.com/propgrid/propgrid/pkg/types"
)

// PropertiesName is the name of the built-in property portfolio dataset.
const PropertiesName = "properties"

// PropertiesDefinition returns the columns and search fields of the
// property grid.
func PropertiesDefinition() view.Definition {
	return view.Definition{
		Columns: []types.ColumnDescriptor{
			{Field: "name", Label: "Property", Type: types.ColumnString, Sortable: true},
			{Field: "address.street", Label: "Street", Type: types.ColumnString},
			{Field: "address.city", Label: "City", Type: types.ColumnString, Sortable: true},
			{Field: "type", Label: "Type", Type: types.ColumnString, Sortable: true},
			{Field: "units", Label: "Units", Type: types.ColumnNumber, Sortable: true},
			{Field: "leaseCount", Label: "Leases", Type: types.ColumnNumber, Sortable: true},
			{Field: "occupancy", Label: "Occupancy", Type: types.ColumnNumber, Sortable: true, Formatter: percent},
			{Field: "monthlyRevenue", Label: "Revenue", Type: types.ColumnNumber, Sortable: true, Formatter: view.Currency("$", 2)},
			{Field: "acquiredOn", Label: "Acquired", Type: types.ColumnDate, Sortable: true, Formatter: view.Date("Jan 2, 2006")},
			{Field: "manager.name", Label: "Manager", Type: types.ColumnString, Sortable: true, Formatter: view.Fallback("unassigned", nil)},
		},
		SearchFields: []string{"name", "address.street", "address.city", "type", "manager.name"},
	}
}

func percent(v interface{}, row types.Row) string {
	if v == nil {
		return ""
	}
	return view.Number(1)(v, row) + "%"
}

// PropertyRows returns the twelve-record property fixture. Each call
// returns fresh records.
func PropertyRows() []types.Row {
	return []types.Row{
		property("p-01", "Alder Court", "1200 NW Glisan St", "Portland", "OR", "97209", "multifamily", 24, 14, 95.8, 38400, "2016-03-14", "Dana Whitfield"),
		property("p-02", "Birchwood Flats", "410 Pine St", "Seattle", "WA", "98101", "multifamily", 8, 1, 62.5, 9600, "2021-07-01", "Marcus Lee"),
		property("p-03", "Cedar Row Townhomes", "77 SE Division St", "Portland", "OR", "97202", "townhome", 6, 3, 83.3, 11250, "2019-10-22", "Dana Whitfield"),
		property("p-04", "Dogwood Lofts", "12500 SW Broadway", "Beaverton", "OR", "97005", "mixed-use", 4, 1, 50, 5200, "2022-02-18", "Priya Raman"),
		property("p-05", "Elm Street Duplex", "2205 Elm St", "Portland", "OR", "97214", "duplex", 2, 1, 100, 3900, "2015-05-09", "Marcus Lee"),
		property("p-06", "Fir Crest Apartments", "3400 N Williams Ave", "Portland", "OR", "97227", "multifamily", 12, 9, 91.7, 19800, "2018-11-30", "Priya Raman"),
		property("p-07", "Garnet Plaza", "88 Commercial St NE", "Salem", "OR", "97301", "commercial", 3, 2, 66.7, 14100, "2020-01-06", "Dana Whitfield"),
		property("p-08", "Hawthorne Commons", "3939 SE Hawthorne Blvd", "Portland", "OR", "97214", "multifamily", 16, 11, 87.5, 27200, "2017-06-25", "Jordan Ellis"),
		property("p-09", "Ironwood Cottage", "540 Oak St", "Eugene", "OR", "97401", "single-family", 1, 1, 100, 2100, "2023-04-03", ""),
		property("p-10", "Juniper Terrace", "615 NE Killingsworth St", "Portland", "OR", "97211", "townhome", 8, 7, 100, 15400, "2019-02-12", "Jordan Ellis"),
		property("p-11", "Kestrel Point", "1001 Main St", "Vancouver", "WA", "98660", "multifamily", 10, 5, 70, 12500, "2021-09-15", "Marcus Lee"),
		property("p-12", "Laurel House", "1830 SW Laurel St", "Portland", "OR", "97201", "single-family", 1, 1, 100, 2750, "2024-01-20", "Priya Raman"),
	}
}

// Properties returns the property fixture as a dataset.
func Properties() *Dataset {
	return New(PropertiesName, "Properties", PropertiesDefinition(), PropertyRows())
}

func property(id, name, street, city, state, zip, kind string, units, leases int, occupancy, revenue float64, acquired, manager string) types.Row {
	row := types.Row{
		"id":   id,
		"name": name,
		"address": map[string]interface{}{
			"street": street,
			"city":   city,
			"state":  state,
			"zip":    zip,
		},
		"type":           kind,
		"units":          units,
		"leaseCount":     leases,
		"occupancy":      occupancy,
		"monthlyRevenue": revenue,
		"acquiredOn":     acquired,
	}
	if manager != "" {
		row["manager"] = map[string]interface{}{"name": manager}
	}
	return row
}
