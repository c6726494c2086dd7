package classifier

// Labels assigned by the classifier.
const (
	LabelBares       = "Bares y restauración"
	LabelModa        = "Moda y complementos"
	LabelSalud       = "Salud"
	LabelMercado     = "Mercado municipal"
	LabelCarniceria  = "Carnicería"
	LabelFruteria    = "Frutería"
	LabelPescaderia  = "Pescadería"
	LabelHorno       = "Horno y panadería"
	LabelOptica      = "Óptica"
	LabelPeluqueria  = "Peluquería"
	LabelCalzado     = "Calzado"
	LabelPerfumeria  = "Perfumería"
	LabelHogar       = "Hogar y decoración"
	LabelLibrerias   = "Librerías"
	LabelJugueterias = "Jugueterías"
	LabelMascotas    = "Tienda mascotas"

	// DefaultLabel is returned when no rule matches.
	DefaultLabel = "Otros"
)

// Rule pairs a label with the keywords that select it.
type Rule struct {
	Label    string
	Keywords []string
}

// DefaultRules is the taxonomy in evaluation order. Order is significant:
// bars come before food retail, and municipal markets come before the
// butcher/grocer rules whose keywords they would otherwise hit.
var DefaultRules = []Rule{
	{LabelBares, []string{
		"bar", "cafe", "cafeteria", "restaurant", "cerveceria", "bistro",
		"gastrobar", "taberna", "sidreria", "hamburgues", "pizzeria",
		"heladeria", "gelato", "pasteleria", "chocolateria", "tapas",
		"comida para llevar", "food truck", "gastronomi",
	}},
	{LabelModa, []string{
		"ropa", "moda", "vestir", "boutique", "fashion", "confeccion",
		"sastreria", "complementos", "accesorios", "bolsos",
	}},
	{LabelSalud, []string{
		"farmacia", "clinica", "medic", "fisio", "terapeut", "psicolog",
		"dentist", "orthodonc", "salud",
	}},
	{LabelMercado, []string{
		"mercado central", "mercado de colon", "mercado ruzafa",
		"mercado de ruzafa", "mercat de russafa", "mercado de algiros",
		"mercat de ruzafa", "mercat del cabanyal", "mercat d'algirs",
		"mercat d'algiro",
	}},
	{LabelCarniceria, []string{
		"carniceria", "carnes", "polleria", "pollos", "aves", "xarcuteria",
		"charcuteria",
	}},
	{LabelFruteria, []string{
		"fruteria", "frutas", "verduras", "verdura", "fruits i verdures",
	}},
	{LabelPescaderia, []string{
		"pescaderia", "pescados", "mariscos", "clochinas", "peixcateria",
		"peixateria",
	}},
	{LabelHorno, []string{
		"horno", "forn", "panaderia", "pasteleria", "dulces", "bombones",
		"chocolates", "bomboneria", "chocolateria",
	}},
	{LabelOptica, []string{
		"optica", "opticos", "gafas", "auditivo", "audiologia",
	}},
	{LabelPeluqueria, []string{
		"peluqueria", "perruquers", "estilistas", "salon", "estetica",
		"belleza",
	}},
	{LabelCalzado, []string{
		"calzado", "zapatos", "zapatilla", "sabates", "zapateria",
	}},
	{LabelPerfumeria, []string{
		"perfumeria", "perfumes", "cosmeticos", "cosmetica",
	}},
	{LabelHogar, []string{
		"hogar", "decoracion", "muebles", "colchones", "descanso", "textil",
	}},
	{LabelLibrerias, []string{
		"libreria", "libros", "comics", "papeleria",
	}},
	{LabelJugueterias, []string{
		"juguetes", "jugueteria", "figuras", "modelismo",
	}},
	{LabelMascotas, []string{
		"mascotas", "veterinario", "veterinaria", "piensos", "zoo",
	}},
}
