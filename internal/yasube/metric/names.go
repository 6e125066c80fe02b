package metric

// Name identifies a measurement. Raw samples produced by test cases and the aggregates computed from them share
// this vocabulary; the string value is what ends up in result files.
type Name string

const (
	AnalysisTime                   Name = "analysisTime"
	AvgConcurrency                 Name = "avgConcurrency"
	AvgDataAvailabilityLatency     Name = "avgDataAvailabilityLatency"
	AvgDataOperationalLatency      Name = "avgDataOperationalLatency"
	AvgProductRetention            Name = "avgProductRetention"
	AvgResponseTime                Name = "avgResponseTime"
	AvgSize                        Name = "avgSize"
	BeginGetResponseTime           Name = "beginGetResponseTime"
	CatalogueCoverage              Name = "catalogueCoverage"
	DataCollectionDivision         Name = "dataCollectionDivision"
	DataCoverage                   Name = "dataCoverage"
	DataOfferConsistency           Name = "dataOfferConsistency"
	DownloadElapsedTime            Name = "downloadElapsedTime"
	EndGetResponseTime             Name = "endGetResponseTime"
	EndTimeName                    Name = "endTime"
	ErrorRate                      Name = "errorRate"
	ExceptionName                  Name = "exception"
	HTTPStatusCodeName             Name = "httpStatusCode"
	MaxDataAvailabilityLatency     Name = "maxDataAvailabilityLatency"
	MaxDataOperationalLatency      Name = "maxDataOperationalLatency"
	MaxRetryNumber                 Name = "maxRetryNumber"
	MaxSize                        Name = "maxSize"
	MaxTotalResults                Name = "maxTotalResults"
	OfflineDataAvailabilityLatency Name = "offlineDataAvailabilityLatency"
	PeakConcurrency                Name = "peakConcurrency"
	PeakResponseTime               Name = "peakResponseTime"
	ProductRetentionName           Name = "ProductRetention"
	QueryTime                      Name = "queryTime"
	ResponseRate                   Name = "responseRate"
	ResponseTimeName               Name = "responseTime"
	ResultsErrorRate               Name = "resultsErrorRate"
	RetryNumber                    Name = "retryNumber"
	SizeName                       Name = "size"
	StartTimeName                  Name = "startTime"
	Throughput                     Name = "throughput"
	TotalOnlineResults             Name = "totalOnlineResults"
	TotalReadResultsName           Name = "totalReadResults"
	TotalReferenceResults          Name = "totalReferenceResults"
	TotalResults                   Name = "totalResults"
	TotalSize                      Name = "totalSize"
	TotalValidatedResults          Name = "totalValidatedResults"
	TotalWrongResults              Name = "totalWrongResults"
	URL                            Name = "url"
	WrongResultsCount              Name = "wrongResultsCount"
)

var knownNames = map[Name]bool{}

func init() {
	for _, n := range []Name{
		AnalysisTime, AvgConcurrency, AvgDataAvailabilityLatency, AvgDataOperationalLatency, AvgProductRetention,
		AvgResponseTime, AvgSize, BeginGetResponseTime, CatalogueCoverage, DataCollectionDivision, DataCoverage,
		DataOfferConsistency, DownloadElapsedTime, EndGetResponseTime, EndTimeName, ErrorRate, ExceptionName,
		HTTPStatusCodeName, MaxDataAvailabilityLatency, MaxDataOperationalLatency, MaxRetryNumber, MaxSize,
		MaxTotalResults, OfflineDataAvailabilityLatency, PeakConcurrency, PeakResponseTime, ProductRetentionName,
		QueryTime, ResponseRate, ResponseTimeName, ResultsErrorRate, RetryNumber, SizeName, StartTimeName,
		Throughput, TotalOnlineResults, TotalReadResultsName, TotalReferenceResults, TotalResults, TotalSize,
		TotalValidatedResults, TotalWrongResults, URL, WrongResultsCount,
	} {
		knownNames[n] = true
	}
}

// Valid reports whether n belongs to the vocabulary.
func (n Name) Valid() bool {
	return knownNames[n]
}

// Unit is the unit of measure of a metric.
type Unit string

const (
	Boolean    Unit = "bool"
	Bytes      Unit = "bytes"
	BytesSec   Unit = "bytes/s"
	Code       Unit = "code"
	Count      Unit = "#"
	DateTime   Unit = "dateTime"
	Days       Unit = "days"
	MS         Unit = "ms"
	Percentage Unit = "%"
)

func (u Unit) Valid() bool {
	switch u {
	case Boolean, Bytes, BytesSec, Code, Count, DateTime, Days, MS, Percentage:
		return true
	}
	return false
}
