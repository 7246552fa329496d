package constants

import "time"

var CacheTTL = struct {
	RawCollection         time.Duration
	StaleCollection       time.Duration
	AssistantConversation time.Duration
}{
	RawCollection:         5 * time.Minute,  // 5분 - CMS 컬렉션 원본
	StaleCollection:       24 * time.Hour,   // 24시간 - CMS 장애 시 사용할 마지막 원본
	AssistantConversation: 30 * time.Minute, // 30분 - 어시스턴트 대화 이력
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
	KeyPrefix    string
}{
	ReadyTimeout: 5 * time.Second,
	KeyPrefix:    "companion:",
}

var AIInputLimits = struct {
	MaxQueryLength  int
	MaxHistoryTurns int
	MaxContextChars int
}{
	MaxQueryLength:  500,
	MaxHistoryTurns: 6,
	MaxContextChars: 24000,
}

var RetryConfig = struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      time.Duration
}{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	Jitter:      250 * time.Millisecond,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,                // 3회 연속 실패 시 Circuit OPEN
	ResetTimeout:        30 * time.Second, // 기본 재시도 대기 시간
	RateLimitTimeout:    1 * time.Minute,  // 429 Rate Limit 전용 타임아웃
	HealthCheckInterval: 2 * time.Minute,  // Health Check 주기
	HealthCheckTimeout:  10 * time.Second, // Health Check 타임아웃
}

var APIConfig = struct {
	CMSBaseURL      string
	CMSTimeout      time.Duration
	CMSPageSize     int
	CMSMaxPages     int
	FetchConcurrent int
}{
	CMSBaseURL:      "https://api.webflow.com",
	CMSTimeout:      10 * time.Second,
	CMSPageSize:     100, // Webflow 최대 limit
	CMSMaxPages:     50,
	FetchConcurrent: 4,
}

var ServerConfig = struct {
	ReadHeaderTimeout  time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	RefreshTimeout     time.Duration
	HealthCheckTimeout time.Duration
	WSWriteWait        time.Duration
	WSPingPeriod       time.Duration
	WSSendBuffer       int
}{
	ReadHeaderTimeout:  5 * time.Second,
	WriteTimeout:       30 * time.Second,
	ShutdownTimeout:    10 * time.Second,
	RefreshTimeout:     90 * time.Second,
	HealthCheckTimeout: 2 * time.Second,
	WSWriteWait:        10 * time.Second,
	WSPingPeriod:       30 * time.Second,
	WSSendBuffer:       8,
}

var StringLimits = struct {
	AgendaLine      int
	SpeakerBio      int
	AssistantAnswer int
}{
	AgendaLine:      160,
	SpeakerBio:      280,
	AssistantAnswer: 2000,
}

var DatabaseConfig = struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}{
	MaxOpenConns:    10, // 스냅샷 저장/조회만 수행
	MaxIdleConns:    2,
	ConnMaxLifetime: 5 * time.Minute,
	PingTimeout:     5 * time.Second,
}
