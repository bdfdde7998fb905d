package types

import (
	"encoding/hex"
	"time"
)

// ==================== 区块核心类型 ====================

// Hash 区块/交易哈希的十六进制表示
//
// 🎯 **统一哈希类型**: 引擎内所有身份标识（区块、交易、链尖）均使用该类型，
// 避免 []byte 与字符串混用导致的缓存键不一致问题。
type Hash string

// Bytes 返回哈希的原始字节；非法十六进制返回nil
func (h Hash) Bytes() []byte {
	b, err := hex.DecodeString(string(h))
	if err != nil {
		return nil
	}
	return b
}

// IsZero 检查哈希是否为空
func (h Hash) IsZero() bool { return len(h) == 0 }

// String 返回哈希的字符串表示
func (h Hash) String() string { return string(h) }

// HashFromBytes 从原始字节构造哈希
func HashFromBytes(b []byte) Hash { return Hash(hex.EncodeToString(b)) }

// ConsensusData 区块头内嵌的混合共识数据
//
// PoW得分与投票得分由各自子系统在出块时填写，引擎在验证时只消费不修改。
type ConsensusData struct {
	PowScore          float64 `json:"pow_score"`          // PoW贡献得分
	VotingScore       float64 `json:"voting_score"`       // 直接投票得分
	ParticipationRate float64 `json:"participation_rate"` // 投票参与率 [0,1]
	PeriodID          string  `json:"period_id"`          // 关联的投票周期ID（可为空）
}

// BlockHeader 区块头
type BlockHeader struct {
	Height        uint64        `json:"height"`         // 区块高度，沿链严格递增
	PreviousHash  Hash          `json:"previous_hash"`  // 父区块哈希
	Timestamp     time.Time     `json:"timestamp"`      // 出块时间戳
	ContentDigest Hash          `json:"content_digest"` // 交易列表内容摘要（Merkle根）
	Difficulty    uint64        `json:"difficulty"`     // PoW难度
	Nonce         uint64        `json:"nonce"`          // PoW随机数
	ConsensusData ConsensusData `json:"consensus_data"` // 混合共识数据
}

// Block 区块
//
// 区块由调用方拥有，引擎验证时只读取，缓存层只保留身份哈希与判定结果。
type Block struct {
	Hash         Hash           `json:"hash"`         // 区块身份哈希
	Header       BlockHeader    `json:"header"`       // 区块头
	Transactions []*Transaction `json:"transactions"` // 交易列表
	Validators   []*Validator   `json:"validators"`   // 本高度的活跃验证者快照
	Votes        []*Vote        `json:"votes"`        // 附带的投票列表
}

// ==================== 交易类型 ====================

// TxOutput 交易输出
type TxOutput struct {
	Address  string   `json:"address"`  // 收款地址
	Amount   *float64 `json:"amount"`   // 金额；nil表示未定义（结构性非法）
	Currency string   `json:"currency"` // 币种
}

// Transaction 交易
//
// 参与奖励交易要求至少一个输出且首个输出金额已定义。
type Transaction struct {
	ID      string      `json:"id"`      // 交易ID
	Outputs []*TxOutput `json:"outputs"` // 输出列表
}
