// Package mocks provides shared test doubles for the store, mailer and auth
// interfaces.
//
// Two flavours exist. The Mock* types are small in-memory fakes with
// optional function fields overriding individual methods; they keep state,
// so scenario tests can assert on flags after a scan. The TestifyMock* types
// embed testify's mock.Mock for tests that want call expectations.
//
//	tasks := mocks.NewMockTaskStore()
//	tasks.Add(task)
//	tasks.MarkErr = errors.New("db down")
package mocks
