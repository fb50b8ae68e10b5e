package model

import (
	"fmt"
	"slices"
)

// ModelState is the deployment state of a model.
type ModelState int32

const (
	ModelStateUnspecified ModelState = iota
	ModelStateOffline
	ModelStateOnline
	ModelStateError
)

var modelStateNames = map[ModelState]string{
	ModelStateUnspecified: "STATE_UNSPECIFIED",
	ModelStateOffline:     "STATE_OFFLINE",
	ModelStateOnline:      "STATE_ONLINE",
	ModelStateError:       "STATE_ERROR",
}

func (s ModelState) String() string {
	return enumName(modelStateNames, s)
}

// ConnectorState is the connection state of a connector.
type ConnectorState int32

const (
	ConnectorStateUnspecified ConnectorState = iota
	ConnectorStateDisconnected
	ConnectorStateConnected
	ConnectorStateError
)

var connectorStateNames = map[ConnectorState]string{
	ConnectorStateUnspecified:  "STATE_UNSPECIFIED",
	ConnectorStateDisconnected: "STATE_DISCONNECTED",
	ConnectorStateConnected:    "STATE_CONNECTED",
	ConnectorStateError:        "STATE_ERROR",
}

func (s ConnectorState) String() string {
	return enumName(connectorStateNames, s)
}

// ServingStatus is the status reported by Liveness and Readiness.
type ServingStatus int32

const (
	ServingStatusUnspecified ServingStatus = iota
	ServingStatusServing
	ServingStatusNotServing
)

var servingStatusNames = map[ServingStatus]string{
	ServingStatusUnspecified: "SERVING_STATUS_UNSPECIFIED",
	ServingStatusServing:     "SERVING_STATUS_SERVING",
	ServingStatusNotServing:  "SERVING_STATUS_NOT_SERVING",
}

func (s ServingStatus) String() string {
	return enumName(servingStatusNames, s)
}

// HealthCheck is the decoded body of a Liveness or Readiness reply.
type HealthCheck struct {
	Response struct {
		Status ServingStatus `json:"status"`
	} `json:"health_check_response"`
}

// Serving reports whether the backend declared itself serving.
func (h HealthCheck) Serving() bool {
	return h.Response.Status == ServingStatusServing
}

// Visibility controls who can see a pipeline or model.
type Visibility int32

const (
	VisibilityUnspecified Visibility = iota
	VisibilityPrivate
	VisibilityPublic
)

var visibilityNames = map[Visibility]string{
	VisibilityUnspecified: "VISIBILITY_UNSPECIFIED",
	VisibilityPrivate:     "VISIBILITY_PRIVATE",
	VisibilityPublic:      "VISIBILITY_PUBLIC",
}

func (v Visibility) String() string {
	return enumName(visibilityNames, v)
}

// View selects how much of a resource the server returns.
type View int32

const (
	ViewUnspecified View = iota
	ViewBasic
	ViewFull
	ViewRecipe
)

// NamespaceType is the answer of a namespace availability check.
type NamespaceType int32

const (
	NamespaceUnspecified NamespaceType = iota
	NamespaceAvailable
	NamespaceUser
	NamespaceOrganization
	NamespaceReserved
)

var namespaceTypeNames = map[NamespaceType]string{
	NamespaceUnspecified:  "NAMESPACE_UNSPECIFIED",
	NamespaceAvailable:    "NAMESPACE_AVAILABLE",
	NamespaceUser:         "NAMESPACE_USER",
	NamespaceOrganization: "NAMESPACE_ORGANIZATION",
	NamespaceReserved:     "NAMESPACE_RESERVED",
}

func (n NamespaceType) String() string {
	return enumName(namespaceTypeNames, n)
}

// FileType is the format of a catalog file.
type FileType int32

const (
	FileTypeUnspecified FileType = iota
	FileTypeText
	FileTypePDF
	FileTypeMarkdown
	FileTypePNG
	FileTypeJPEG
	FileTypeHTML
	FileTypeDOCX
	FileTypeCSV
)

var fileTypeNames = map[FileType]string{
	FileTypeUnspecified: "FILE_TYPE_UNSPECIFIED",
	FileTypeText:        "FILE_TYPE_TEXT",
	FileTypePDF:         "FILE_TYPE_PDF",
	FileTypeMarkdown:    "FILE_TYPE_MARKDOWN",
	FileTypePNG:         "FILE_TYPE_PNG",
	FileTypeJPEG:        "FILE_TYPE_JPEG",
	FileTypeHTML:        "FILE_TYPE_HTML",
	FileTypeDOCX:        "FILE_TYPE_DOCX",
	FileTypeCSV:         "FILE_TYPE_CSV",
}

func (f FileType) String() string {
	return enumName(fileTypeNames, f)
}

// FileTypeFromExt maps a file extension (".pdf") to its FileType.
func FileTypeFromExt(ext string) FileType {
	switch ext {
	case ".txt":
		return FileTypeText
	case ".pdf":
		return FileTypePDF
	case ".md", ".markdown":
		return FileTypeMarkdown
	case ".png":
		return FileTypePNG
	case ".jpg", ".jpeg":
		return FileTypeJPEG
	case ".html", ".htm":
		return FileTypeHTML
	case ".docx":
		return FileTypeDOCX
	case ".csv":
		return FileTypeCSV
	}
	return FileTypeUnspecified
}

// FileProcessStatus tracks a catalog file through conversion and embedding.
type FileProcessStatus int32

const (
	FileProcessStatusUnspecified FileProcessStatus = iota
	FileProcessStatusNotStarted
	FileProcessStatusWaiting
	FileProcessStatusConverting
	FileProcessStatusChunking
	FileProcessStatusEmbedding
	FileProcessStatusCompleted
	FileProcessStatusFailed
)

var fileProcessStatusNames = map[FileProcessStatus]string{
	FileProcessStatusUnspecified: "FILE_PROCESS_STATUS_UNSPECIFIED",
	FileProcessStatusNotStarted:  "FILE_PROCESS_STATUS_NOTSTARTED",
	FileProcessStatusWaiting:     "FILE_PROCESS_STATUS_WAITING",
	FileProcessStatusConverting:  "FILE_PROCESS_STATUS_CONVERTING",
	FileProcessStatusChunking:    "FILE_PROCESS_STATUS_CHUNKING",
	FileProcessStatusEmbedding:   "FILE_PROCESS_STATUS_EMBEDDING",
	FileProcessStatusCompleted:   "FILE_PROCESS_STATUS_COMPLETED",
	FileProcessStatusFailed:      "FILE_PROCESS_STATUS_FAILED",
}

func (s FileProcessStatus) String() string {
	return enumName(fileProcessStatusNames, s)
}

// MessageType is the content type of a conversation message.
type MessageType int32

const (
	MessageTypeUnspecified MessageType = iota
	MessageTypeText
)

func enumName[T ~int32](names map[T]string, v T) string {
	if name, ok := names[v]; ok {
		return name
	}
	return fmt.Sprintf("%T(%d)", v, int32(v))
}

// Terminal reports whether s is one of the given states.
func (s ModelState) Terminal(set ...ModelState) bool {
	return slices.Contains(set, s)
}

// Terminal reports whether s is one of the given states.
func (s ConnectorState) Terminal(set ...ConnectorState) bool {
	return slices.Contains(set, s)
}
