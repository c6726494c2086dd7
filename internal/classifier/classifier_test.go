package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		website string
		want    string
	}{
		{"Bar El Sol", "", LabelBares},
		{"CAFETERIA LUNA", "", LabelBares},
		{"Farmacia Ruzafa", "https://farmaciaruzafa.es", LabelSalud},
		{"Puesto 12", "https://mercadocentralvalencia.es/mercado central", LabelMercado},
		{"Pollos Asados Paco", "", LabelCarniceria},
		{"Fruits i Verdures Pepa", "", LabelFruteria},
		{"Peixateria Maria", "", LabelPescaderia},
		{"Forn de Sant Nicolau", "", LabelHorno},
		// keywords carry no accents, so "óptica" does not contain "optica"
		{"Óptica Centro", "", DefaultLabel},
		{"Opticos Garcia", "", LabelOptica},
		{"Perruquers Nou", "", LabelPeluqueria},
		{"Sabates Joan", "", LabelCalzado},
		{"Perfumes y Cosmeticos", "", LabelPerfumeria},
		{"Colchones Descanso", "", LabelHogar},
		{"Libreria Paris", "", LabelLibrerias},
		{"Jugueteria Nino", "", LabelJugueterias},
		{"Piensos Lola", "", LabelMascotas},
		{"Ferretería Hermanos", "", DefaultLabel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.name, tc.website))
		})
	}
}

func TestClassifyRuleOrder(t *testing.T) {
	// Both a bar keyword and a boutique keyword: bars win
	assert.Equal(t, LabelBares, Classify("Boutique Bar La Moda", ""))

	// Markets are checked before butchers even when a butcher keyword is present
	assert.Equal(t, LabelMercado, Classify("Carniceria Mercat del Cabanyal", ""))

	// "pasteleria" appears in both bars and bakeries: the earlier rule wins
	assert.Equal(t, LabelBares, Classify("Pasteleria Dulce", ""))
}

func TestClassifyUsesWebsite(t *testing.T) {
	assert.Equal(t, LabelModa, Classify("Comercial Ana", "https://modaana.com"))
}

func TestClassifyDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, LabelSalud, Classify("Clinica Dental Sonrisa", "https://sonrisa.es"))
	}
}

func TestCustomRules(t *testing.T) {
	c := New([]Rule{
		{Label: "First", Keywords: []string{"ALPHA"}},
		{Label: "Second", Keywords: []string{"alpha", "beta"}},
	}, "None")

	assert.Equal(t, "First", c.Classify("alpha beta", ""))
	assert.Equal(t, "Second", c.Classify("Beta", ""))
	assert.Equal(t, "None", c.Classify("gamma", ""))
	assert.Equal(t, []string{"First", "Second", "None"}, c.Labels())
}

func TestDefaultRulesOrder(t *testing.T) {
	labels := New(DefaultRules, DefaultLabel).Labels()
	assert.Len(t, labels, 17)
	assert.Equal(t, LabelBares, labels[0])
	assert.Equal(t, LabelMercado, labels[3])
	assert.Equal(t, LabelCarniceria, labels[4])
	assert.Equal(t, DefaultLabel, labels[16])
}

func TestClassifyAccentFolding(t *testing.T) {
	c := New(DefaultRules, DefaultLabel, WithAccentFolding())

	assert.Equal(t, LabelOptica, c.Classify("Óptica Centro", ""))
	assert.Equal(t, LabelBares, c.Classify("Cervecería Túria", ""))
	assert.Equal(t, DefaultLabel, Classify("Óptica Centro", ""), "default classifier does not fold")
}
