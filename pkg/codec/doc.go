// Package codec 提供缓存值的透明压缩编解码。
//
// # 线上格式
//
// 每个编码后的载荷带 1 字节头部标识编码方式：
//
//	0x00  原始字节，无压缩
//	0x01  s2 块压缩（github.com/klauspost/compress/s2）
//
// 两个缓存层存储的都是编码后的载荷，读取方通过头部即可自解释，
// 无需在层外维护压缩标记。
//
// # 压缩契约
//
//   - 序列化大小达到阈值才尝试压缩；
//   - 压缩结果不比原始小则放弃压缩（头部保持 0x00）；
//   - 压缩载荷的解码必须精确还原原始字节；
//   - 头部非法或压缩数据损坏时返回 ErrCorrupt，调用方应将条目视为缺失并淘汰。
package codec
