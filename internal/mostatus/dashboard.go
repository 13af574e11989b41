package mostatus

// Dashboard is the widget state. Reducers return a new value and never mutate
// the receiver's slices.
type Dashboard struct {
	Range                 DateRange       `json:"range"`
	Chart                 ChartData       `json:"chart"`
	RecentMOs             []RecentMO      `json:"recent_mos"`
	OperationTypes        []OperationType `json:"operation_types"`
	SelectedOperationType int64           `json:"selected_operation_type"`
	OperationDocs         []OperationDoc  `json:"operation_docs"`
}

// NewDashboard returns the initial state for r with an empty five-series chart.
func NewDashboard(r DateRange) Dashboard {
	return Dashboard{
		Range:          r,
		Chart:          BuildChartData(nil),
		RecentMOs:      []RecentMO{},
		OperationTypes: []OperationType{},
		OperationDocs:  []OperationDoc{},
	}
}

// WithRange sets the date range.
func (d Dashboard) WithRange(r DateRange) Dashboard {
	d.Range = r
	return d
}

// WithChart replaces the chart wholesale.
func (d Dashboard) WithChart(chart ChartData) Dashboard {
	d.Chart = chart
	return d
}

// WithRecent replaces the recent orders.
func (d Dashboard) WithRecent(mos []RecentMO) Dashboard {
	d.RecentMOs = append([]RecentMO{}, mos...)
	return d
}

// WithOperationTypes replaces the operation types.
func (d Dashboard) WithOperationTypes(types []OperationType) Dashboard {
	d.OperationTypes = append([]OperationType{}, types...)
	return d
}

// SelectOperationType records the selection. Clearing it also clears the documents.
func (d Dashboard) SelectOperationType(id int64) Dashboard {
	d.SelectedOperationType = id
	if id == 0 {
		d.OperationDocs = []OperationDoc{}
	}
	return d
}

// WithOperationDocs replaces the documents of the selected type.
func (d Dashboard) WithOperationDocs(docs []OperationDoc) Dashboard {
	d.OperationDocs = append([]OperationDoc{}, docs...)
	return d
}

// FindOperationType looks a loaded type up by id.
func (d Dashboard) FindOperationType(id int64) (OperationType, bool) {
	for _, t := range d.OperationTypes {
		if t.ID == id {
			return t, true
		}
	}
	return OperationType{}, false
}
