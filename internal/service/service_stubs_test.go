package service

import (
	"context"
	"database/sql"

	"github.com/noah-isme/timify-bridge/internal/models"
	"github.com/noah-isme/timify-bridge/pkg/timify"
)

type blockReaderStub struct {
	settings *models.BlockSettings
	err      error
}

func (s *blockReaderStub) Find(ctx context.Context, courseID, blockID string) (*models.BlockSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.settings == nil {
		return nil, sql.ErrNoRows
	}
	copied := *s.settings
	return &copied, nil
}

type linkStoreStub struct {
	records          map[string]models.StudentLinkRecord
	getOrCreateCalls int
	findCalls        int
	saves            []models.StudentLinkRecord
	saveErr          error
}

func newLinkStoreStub() *linkStoreStub {
	return &linkStoreStub{records: map[string]models.StudentLinkRecord{}}
}

func (s *linkStoreStub) put(studentID string, state models.LinkState) {
	s.records[studentID] = models.StudentLinkRecord{ID: "rec-" + studentID, StudentID: studentID, State: state}
}

func (s *linkStoreStub) GetOrCreate(ctx context.Context, courseID, blockID, studentID string) (*models.StudentLinkRecord, error) {
	s.getOrCreateCalls++
	record, ok := s.records[studentID]
	if !ok {
		record = models.StudentLinkRecord{ID: "rec-" + studentID, CourseID: courseID, BlockID: blockID, StudentID: studentID}
		s.records[studentID] = record
	}
	return &record, nil
}

func (s *linkStoreStub) Find(ctx context.Context, courseID, blockID, studentID string) (*models.StudentLinkRecord, error) {
	s.findCalls++
	record, ok := s.records[studentID]
	if !ok {
		return &models.StudentLinkRecord{CourseID: courseID, BlockID: blockID, StudentID: studentID}, nil
	}
	return &record, nil
}

func (s *linkStoreStub) Save(ctx context.Context, record *models.StudentLinkRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves = append(s.saves, *record)
	s.records[record.StudentID] = *record
	return nil
}

type credentialProviderStub struct {
	cred          *models.CourseCredential
	gets          int
	invalidations int
}

func (s *credentialProviderStub) Get(ctx context.Context, courseID string) (*models.CourseCredential, bool) {
	s.gets++
	if s.cred == nil {
		return nil, false
	}
	return s.cred, true
}

func (s *credentialProviderStub) Invalidate(ctx context.Context, courseID string) {
	s.invalidations++
	s.cred = nil
}

type timifyClientStub struct {
	createRequests []timify.CreateLinksRequest
	createLinks    []timify.Link
	createErr      error
	pollCalls      int
	statuses       []timify.LinkStatus
	pollErr        error
	forms          []timify.Form
	formsErr       error
}

func (s *timifyClientStub) CreateLinks(ctx context.Context, cred timify.Credential, req timify.CreateLinksRequest) ([]timify.Link, error) {
	s.createRequests = append(s.createRequests, req)
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.createLinks, nil
}

func (s *timifyClientStub) FormLinks(ctx context.Context, cred timify.Credential, formID string) ([]timify.LinkStatus, error) {
	s.pollCalls++
	if s.pollErr != nil {
		return nil, s.pollErr
	}
	return s.statuses, nil
}

func (s *timifyClientStub) ListForms(ctx context.Context, cred timify.Credential) ([]timify.Form, error) {
	if s.formsErr != nil {
		return nil, s.formsErr
	}
	return s.forms, nil
}

func (s *timifyClientStub) remoteCalls() int {
	return len(s.createRequests) + s.pollCalls
}

func strPtr(v string) *string {
	return &v
}

func validCredential() *models.CourseCredential {
	return &models.CourseCredential{CourseID: "course-1", SessionToken: "sid", APIKey: "key"}
}
