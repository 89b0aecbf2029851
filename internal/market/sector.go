package market

// Sector is a market sector tag. Instruments carry 2-3 tags and share daily
// sentiment shocks with every other instrument carrying the same tag.
type Sector string

const (
	SectorArcana    Sector = "Arcana"
	SectorMining    Sector = "Mining"
	SectorAgri      Sector = "Agriculture"
	SectorLogistics Sector = "Logistics"
	SectorSmithing  Sector = "Smithing"
	SectorLuxury    Sector = "Luxury"
	SectorMedicine  Sector = "Medicine"
	SectorEnergy    Sector = "Energy"
	SectorFinance   Sector = "Finance"
	SectorWilds     Sector = "Wilds"
)

// Sectors returns the full catalog in fixed order. Generation code indexes
// into this slice, so the order is part of the determinism contract.
func Sectors() []Sector {
	return []Sector{
		SectorArcana, SectorMining, SectorAgri, SectorLogistics,
		SectorSmithing, SectorLuxury, SectorMedicine, SectorEnergy,
		SectorFinance, SectorWilds,
	}
}
