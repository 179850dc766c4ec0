package rates_test

import (
	"fmt"

	"github.com/matzehuels/healthviz/pkg/dataset"
	"github.com/matzehuels/healthviz/pkg/rates"
)

func ExampleJoin() {
	population := []dataset.Row{
		{"Geographic Area": "Texas", "Total Resident Population": "1000"},
	}
	diabetes := []dataset.Row{
		{"States": "Texas", "2020": "10", "2021": "abc"},
	}

	lookup, _ := rates.BuildPopulationLookup(population, "Geographic Area", "Total Resident Population", nil)
	tbl, err := rates.Join(diabetes, "States", lookup, rates.YearRange{Start: 2020, End: 2021})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	rec, _ := tbl.Get("Texas", 2020)
	fmt.Printf("%s %d: %.2f%% (%d people)\n", rec.Entity, rec.Year, rec.Rate, rec.DerivedCount)
	_, ok := tbl.Get("Texas", 2021)
	fmt.Println("2021 present:", ok)
	// Output:
	// Texas 2020: 10.00% (100 people)
	// 2021 present: false
}
