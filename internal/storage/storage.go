package storage

import "walletclinic/internal/model"

// ReportSink is where batch exports land.
type ReportSink interface {
	PutReports(reports []model.SummaryReport) error
	PutFailures(failures []model.BatchFailure) error
}
