package filter

// DesignerCriteria is the designer directory's facet set.
type DesignerCriteria struct {
	Search      string
	Category    string
	Subcategory string
	Location    string
	Sustainable bool
	Featured    bool
}

func (c DesignerCriteria) Facets() []Facet {
	return []Facet{
		Search(c.Search, "name", "bio"),
		Contains("category", c.Category),
		Contains("subcategory", c.Subcategory),
		Contains("location", c.Location),
		Require("sustainable", c.Sustainable),
		Require("featured", c.Featured),
	}
}

// EventCriteria is the events listing's facet set.
type EventCriteria struct {
	Search   string
	Category string
	Location string
	Featured bool
	Virtual  bool
}

func (c EventCriteria) Facets() []Facet {
	return []Facet{
		Search(c.Search, "title", "description", "venue"),
		Contains("category", c.Category),
		Contains("location", c.Location),
		Require("featured", c.Featured),
		Require("virtual", c.Virtual),
	}
}

// PostCriteria is the blog index's facet set.
type PostCriteria struct {
	Search        string
	Category      string
	Tag           string
	Featured      bool
	PublishedOnly bool
}

func (c PostCriteria) Facets() []Facet {
	return []Facet{
		Search(c.Search, "title", "excerpt", "body", "author"),
		Contains("category", c.Category),
		Contains("tags", c.Tag),
		Require("featured", c.Featured),
		Require("published", c.PublishedOnly),
	}
}
