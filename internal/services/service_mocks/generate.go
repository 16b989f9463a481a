package service_mocks

//go:generate mockgen -source=../observability.go -destination=service_mocks.go -package=service_mocks

// This file contains the go:generate directive for the metrics and event
// publisher mocks. To regenerate them, run:
//   go generate ./internal/services/service_mocks
