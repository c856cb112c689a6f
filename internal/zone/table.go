package zone

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultTable is the Bangalore commute zone table. Order matters.
func DefaultTable() *Table {
	t, err := NewTable(
		Zone{
			Name:     East,
			Coverage: "IT corridor, tech parks",
			Areas: []string{"Yelahanka", "Whitefield", "Hoskote", "Kadugodi", "Channasandra", "TC Palya",
				"Kithaganur", "MS Palya", "Hennur Bagalur", "K Channasandra", "Varthur", "Gunjur", "Chikka Bellandur"},
		},
		Zone{
			Name:     West,
			Coverage: "Residential areas, universities",
			Areas: []string{"Kengeri", "Nagarbhavi", "Raja-Rajeshwari Nagar", "Bangalore University",
				"Janapriya Township", "Jnanabharathi", "Malathalli", "Chandra Layout", "Attiguppe", "RPC Layout",
				"Annapoorneshwari Nagar", "Kottigepalya", "Kamakshipalya", "Sundkadakatte", "Kadabgere"},
		},
		Zone{
			Name:     North,
			Coverage: "Industrial areas, airport route",
			Areas: []string{"Laggere", "Hesarghatta Main Road", "8th Mile Signal", "T. Dasarahalli", "Abiigere",
				"Kammagonadahalli", "Mathikere", "Yeshwathpur"},
		},
		Zone{
			Name:     South,
			Coverage: "IT hubs, Electronic City",
			Areas: []string{"JP Nagar 9th Phase", "Electronic City", "Hulimavu", "Konanakunte", "Uttarahalli",
				"Chikkakalasandra", "Ittamadu", "Girinagar", "Meenakshi Nagar"},
		},
		Zone{
			Name:     Central,
			Coverage: "City center, transport hubs",
			Areas: []string{"Hebbagodi Police Station", "Central Jail", "Hosar Road", "Surjapur Road",
				"Choodsandra Circle", "Kaikindrahalli", "Hosapalya"},
		},
		Zone{
			Name:     NonHiring,
			Coverage: "Restricted zones",
			Areas:    []string{"Binny Pete", "Cotton Pete", "Chickpet"},
		},
	)
	if err != nil {
		panic(err)
	}
	return t
}

type tableFile struct {
	Zones []Zone `yaml:"zones"`
}

// LoadTable decodes a YAML document of the form
//
//	zones:
//	  - name: East
//	    coverage: IT corridor
//	    areas: [Whitefield, Varthur]
//
// keeping the document order.
func LoadTable(r io.Reader) (*Table, error) {
	var f tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding zone table: %w", err)
	}
	return NewTable(f.Zones...)
}

func LoadTableFile(path string) (*Table, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening zone table: %w", err)
	}
	defer fh.Close()
	return LoadTable(fh)
}
