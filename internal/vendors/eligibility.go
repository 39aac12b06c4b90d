package vendors

// CanApprove reports whether a vendor satisfies the completeness rule
// required for the APPROVED status: every contact and address field filled
// in and at least one compliance document on file. Pure predicate, used
// both to gate the transition and to disable the choice in status pickers.
func CanApprove(vendor Vendor, documentCount int) bool {
	hasAllDetails := vendor.Name != "" &&
		vendor.ContactEmail != "" &&
		vendor.ContactPhone != "" &&
		vendor.Address.Street != "" &&
		vendor.Address.City != "" &&
		vendor.Address.State != "" &&
		vendor.Address.ZipCode != "" &&
		vendor.Address.Country != ""

	return hasAllDetails && documentCount > 0
}
