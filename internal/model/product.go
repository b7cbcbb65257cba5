package model

// Tier is the commercial tier of a catalog item
type Tier string

const (
	TierFree Tier = "FREE"
	TierPaid Tier = "PAID"
)

// MaterialType classifies what the product is
type MaterialType string

const (
	MaterialEco       MaterialType = "ECO"       // 친환경자재
	MaterialOrganic   MaterialType = "ORGANIC"   // 유기농자재
	MaterialPesticide MaterialType = "PESTICIDE" // 농약; never recommended from a photo
)

// Product is static catalog data; the mixer only filters it
type Product struct {
	Name         string       `json:"name" yaml:"name" bson:"name"`
	Tier         Tier         `json:"tier" yaml:"tier" bson:"tier"`
	MaterialType MaterialType `json:"material_type" yaml:"material_type" bson:"materialType"`
	UseCase      string       `json:"use_case,omitempty" yaml:"use_case,omitempty" bson:"useCase,omitempty"`
	Signals      []Signal     `json:"signals" yaml:"signals" bson:"signals"`
}

// IsPaid reports whether the product is paid tier
func (p *Product) IsPaid() bool {
	return p.Tier == TierPaid
}

// IsPesticide reports whether the product is a chemical pesticide
func (p *Product) IsPesticide() bool {
	return p.MaterialType == MaterialPesticide
}

// Matches reports whether any of the product's signals is active
func (p *Product) Matches(active map[Signal]bool) bool {
	for _, s := range p.Signals {
		if active[s] {
			return true
		}
	}
	return false
}
