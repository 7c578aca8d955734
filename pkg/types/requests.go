package types

// EnquiryRequest is the payload a student submits from an instructor
// profile. Validated before any upstream call is made.
type EnquiryRequest struct {
	InstructorId string `json:"instructorId" validate:"required"`
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"omitempty,e164"`
	Postcode     string `json:"postcode" validate:"required,min=5,max=8"`
	Message      string `json:"message" validate:"max=2000"`
}

// BookingRequest covers the lesson booking form. Payment collection itself
// happens upstream, this only carries the reference produced by it.
type BookingRequest struct {
	InstructorId     string `json:"instructorId" validate:"required"`
	StudentName      string `json:"studentName" validate:"required,min=2,max=100"`
	StudentEmail     string `json:"studentEmail" validate:"required,email"`
	Postcode         string `json:"postcode" validate:"required,min=5,max=8"`
	LessonDate       string `json:"lessonDate" validate:"required,datetime=2006-01-02"`
	LessonTime       string `json:"lessonTime" validate:"required,datetime=15:04"`
	Hours            int    `json:"hours" validate:"required,min=1,max=10"`
	VehicleType      string `json:"vehicleType" validate:"omitempty,oneof=Manual Automatic Both"`
	PaymentReference string `json:"paymentReference" validate:"required"`
}

// ProfileUpdate is the instructor dashboard mutation proxied to the
// backend, guarded by dashboard auth.
type ProfileUpdate struct {
	Name         string    `json:"name" validate:"required,min=2,max=100"`
	Accepting    bool      `json:"accepting"`
	BrandName    string    `json:"brandName" validate:"max=100"`
	Description  string    `json:"description" validate:"max=4000"`
	PricePerHour float64   `json:"pricePerHour" validate:"required,gt=0"`
	Outcodes     []string  `json:"outcodes" validate:"required,min=1,dive,min=2,max=4"`
	Languages    []string  `json:"languages" validate:"dive,min=2,max=40"`
	Vehicles     []Vehicle `json:"vehicles" validate:"dive"`
}
