package models

import (
	"strconv"
	"time"
)

// Certificate is a TLS certificate managed by the WAF
type Certificate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Domains     []string  `json:"domains"`
	IssuerName  string    `json:"issuerName"`
	FingerPrint string    `json:"fingerPrint"`
	ExpireTime  time.Time `json:"expireTime"`
	PublicKey   string    `json:"publicKey,omitempty"`
	PrivateKey  string    `json:"privateKey,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BackendServer is one upstream behind a site
type BackendServer struct {
	Host  string `json:"host"`
	Port  int    `json:"port"`
	IsSSL bool   `json:"isSSL"`
}

// Site is a protected virtual host
type Site struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Domain        string          `json:"domain"`
	ListenPort    int             `json:"listenPort"`
	EnableHTTPS   bool            `json:"enableHTTPS"`
	CertificateID string          `json:"certificateId,omitempty"`
	Servers       []BackendServer `json:"servers"`
	WAFEnabled    bool            `json:"wafEnabled"`
	WAFMode       string          `json:"wafMode"`
	ActiveStatus  bool            `json:"activeStatus"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// RuleLog is one rule match inside an attack log record
type RuleLog struct {
	Accuracy   int    `json:"accuracy"`
	LogRaw     string `json:"logRaw"`
	Message    string `json:"message"`
	Payload    string `json:"payload"`
	Phase      int    `json:"phase"`
	RuleID     int    `json:"ruleId"`
	SecLangRaw string `json:"secLangRaw"`
	SecMark    string `json:"secMark"`
	Severity   int    `json:"severity"`
}

// WAFLog is a single attack log record
type WAFLog struct {
	ID        string    `json:"id"`
	RuleID    int       `json:"ruleId"`
	SrcIP     string    `json:"srcIp"`
	SrcPort   int       `json:"srcPort"`
	DstIP     string    `json:"dstIp"`
	DstPort   int       `json:"dstPort"`
	Domain    string    `json:"domain"`
	URI       string    `json:"uri"`
	RequestID string    `json:"requestId"`
	Message   string    `json:"message"`
	Payload   string    `json:"payload"`
	Severity  int       `json:"severity"`
	Request   string    `json:"request,omitempty"`
	Response  string    `json:"response,omitempty"`
	Logs      []RuleLog `json:"logs,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Target renders domain:port/uri the way the log table shows it
func (l WAFLog) Target() string {
	return l.Domain + ":" + strconv.Itoa(l.DstPort) + l.URI
}
