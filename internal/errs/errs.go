package errs

import "errors"

var ErrInvalidOrder = errors.New("invalid order")
var ErrOrderNotFound = errors.New("order not found")
var ErrOrderAlreadyCancelled = errors.New("order already cancelled")
var ErrEmployeeNotFound = errors.New("employee not found")
var ErrDepartmentNotFound = errors.New("department not found")
var ErrAlreadySponsored = errors.New("meal already sponsored for this department and date")
var ErrNothingToSponsor = errors.New("no orders to sponsor")
var ErrCorruptedBalance = errors.New("corrupted balance value")
var ErrInvalidToken = errors.New("invalid token")
var ErrLoginAlreadyExists = errors.New("login already exists")
var ErrAdminNotFound = errors.New("admin not found")
