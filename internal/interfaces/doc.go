// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Sync Pipeline
//
//   - RecordSource: Lists the records of a pass (internal/syncer/orchestrator.go)
//   - NoteDestination: Checks for and creates notes (internal/syncer/orchestrator.go)
//   - ProgressReporter: Persists pass progress (internal/syncer/orchestrator.go)
//
// ## Data Access Interfaces
//
//   - SettingsRepository: Key/value overrides (internal/settingsstore/settingsstore.go)
//   - RunRecorder: Opens a run history row per pass (internal/services/interfaces.go)
//   - RunPruner: Deletes old run history (internal/tasks/prune_runs.go)
//
// ## Pass Coordination
//
//   - PassRunner: Runs one guarded pass to completion (internal/scheduler, internal/tasks)
//   - SyncRunner: Starts and cancels streamed passes (internal/http/sync.go)
//   - PassEnqueuer: Queues a background pass (internal/http/sync.go)
//
// ## External Service Interfaces
//
//   - FolderLister, CollectionLister: Picker listings (internal/lookup/lookup.go)
//   - ZoteroChecker, CraftChecker: Credential checks (internal/http/connections.go)
//
// # Adding a New Destination
//
// To write notes somewhere other than Craft:
//
//  1. Implement NoteDestination in its own package
//
//     type NotionClient struct {
//         token string
//     }
//
//     func (c *NotionClient) ItemExistsByTitle(ctx context.Context, collectionID, parentDocumentID, title string) bool
//     func (c *NotionClient) CreateSubpage(ctx context.Context, parentDocumentID, title, body string, tags []string) (string, error)
//
//     var _ syncer.NoteDestination = (*NotionClient)(nil)
//
//  2. Pass a DestinationFactory to syncer.NewOrchestrator in entrypoint/app.go
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/<domain>/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Add the entity to the AutoMigrate list in database.go
//
//  4. Add compile-time check:
//
//     var _ SomeStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
